package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"oraculo-be/internal/dto"
	"oraculo-be/pkg/generation"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the generation topic and calls the workflow
// webhook. A rejected dispatch rolls the optimistic message back through the
// chat service; the reply itself never comes through here, the workflow
// writes it to the history table.
type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	webhook     *generation.WebhookClient
	chatService IChatService
	timeout     time.Duration
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	webhook *generation.WebhookClient,
	chatService IChatService,
	timeout time.Duration,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		webhook:     webhook,
		chatService: chatService,
		timeout:     timeout,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload dto.GenerateMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal generate message: %v", err)
		msg.Ack() // malformed, retrying cannot help
		return
	}

	log.Printf("[INFO] Dispatching message to workflow for session %s", payload.SessionId)

	ctx, cancel := context.WithTimeout(context.Background(), cs.timeout)
	defer cancel()

	if err := cs.webhook.Invoke(ctx, payload.Content, payload.SessionId, payload.UserId); err != nil {
		log.Printf("[ERROR] Workflow rejected message for session %s: %v", payload.SessionId, err)
		// No Nack: a retry would duplicate the user's message in the
		// workflow. Roll back and let the user resend.
		cs.chatService.FailPending(payload.UserId, payload.SessionId, payload.Content, "falha ao enviar mensagem para o assistente")
		msg.Ack()
		return
	}

	log.Printf("[INFO] Workflow accepted message for session %s", payload.SessionId)
	msg.Ack()
}
