package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func decode(body []byte) map[string]interface{} {
	var out map[string]interface{}
	json.Unmarshal(body, &out)
	return out
}

func main() {
	color.Cyan("🚀 Starting Oráculo smoke test\n")

	email := fmt.Sprintf("smoke_%d@example.com", time.Now().Unix())

	// 1. Register
	color.Yellow("\n1. Register user %s", email)
	resp, body, err := sendRequest("POST", "/auth/register", "", map[string]interface{}{
		"email":     email,
		"password":  "smoke-test-123",
		"full_name": "Smoke Tester",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// 2. Login
	color.Yellow("\n2. Login")
	resp, body, err = sendRequest("POST", "/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "smoke-test-123",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	loginResp := decode(body)
	prettyPrint(loginResp)

	token := ""
	if data, ok := loginResp["data"].(map[string]interface{}); ok {
		token, _ = data["access_token"].(string)
	}
	if token == "" {
		color.Red("No access token in login response")
		os.Exit(1)
	}

	// 3. Initial chat state
	color.Yellow("\n3. Get chat state")
	resp, body, _ = sendRequest("GET", "/chat/state", token, nil)
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// 4. Create session
	color.Yellow("\n4. Create session")
	resp, body, _ = sendRequest("POST", "/chat/sessions", token, map[string]interface{}{})
	color.Green("Status: %s", resp.Status)
	createResp := decode(body)
	prettyPrint(createResp)

	// 5. Send a message
	color.Yellow("\n5. Send message")
	resp, body, _ = sendRequest("POST", "/chat/messages", token, map[string]interface{}{
		"content": "Olá, tudo bem?",
	})
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// 6. Poll state until the reply lands (or we give up)
	color.Yellow("\n6. Poll for reply")
	for i := 0; i < 15; i++ {
		time.Sleep(2 * time.Second)
		_, body, _ = sendRequest("GET", "/chat/state", token, nil)
		state := decode(body)
		data, _ := state["data"].(map[string]interface{})
		if data == nil {
			continue
		}
		processing, _ := data["processing"].(bool)
		fmt.Printf("  poll %d: processing=%v\n", i+1, processing)
		if !processing {
			color.Green("Reply arrived")
			prettyPrint(data["messages"])
			break
		}
	}

	color.Cyan("\n✅ Smoke test finished")
}
