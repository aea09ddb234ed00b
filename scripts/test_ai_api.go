package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
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

	client := &http.Client{} // No timeout, LLM calls can be slow
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

// Multipart upload helper
func uploadFile(url, token, filename string, content []byte) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, nil, err
	}
	part.Write(content)
	writer.Close()

	req, err := http.NewRequest("POST", baseURL+url, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
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

func dataField(body []byte, field string) (interface{}, bool) {
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false
	}
	data, ok := parsed["data"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	v, ok := data[field]
	return v, ok
}

const sampleDocument = `Solar Energy Basics

Solar panels convert sunlight into electricity using photovoltaic cells.
Modern residential panels reach 20 to 22 percent efficiency, while
laboratory cells have exceeded 47 percent under concentrated light.

Panel output degrades roughly 0.5 percent per year, so most manufacturers
guarantee at least 80 percent of the rated output after 25 years.

Inverters convert the direct current from the panels into alternating
current for the grid. String inverters are cheaper; microinverters
tolerate partial shading better.`

func main() {
	color.Cyan("🚀 Starting Query Pipeline API Test\n")

	userToken := os.Getenv("TEST_USER_TOKEN")
	if userToken == "" {
		color.Red("TEST_USER_TOKEN is not set (JWT with a user_id claim)")
		os.Exit(1)
	}

	// 1. Health
	color.Yellow("\n[PUBLIC] 1. Health Check")
	resp, body, err := sendRequest("GET", "/health/v1", "", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var healthResp map[string]interface{}
	json.Unmarshal(body, &healthResp)
	prettyPrint(healthResp)

	// 2. Supported Languages
	color.Yellow("\n[USER] 2. Supported Languages")
	resp, body, err = sendRequest("GET", "/query/v1/languages", userToken, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	if langs, ok := dataField(body, "languages"); ok {
		if list, ok := langs.([]interface{}); ok {
			fmt.Printf("Supported languages: %d\n", len(list))
		}
	}

	// 3. Upload Document
	color.Yellow("\n[USER] 3. Upload Test Document")
	resp, body, err = uploadFile("/document/v1/upload", userToken, "solar_energy.txt", []byte(sampleDocument))
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var documentID string
	if id, ok := dataField(body, "id"); ok {
		documentID, _ = id.(string)
		fmt.Printf("Created Document ID: %s\n", documentID)
	}
	if documentID == "" {
		color.Red("No document id returned, aborting")
		os.Exit(1)
	}

	// 4. Poll until ingestion finishes
	color.Yellow("\n[USER] 4. Wait for Ingestion")
	status := "pending"
	for i := 0; i < 15 && status == "pending"; i++ {
		time.Sleep(2 * time.Second)
		_, body, err = sendRequest("GET", "/document/v1/"+documentID, userToken, nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		if s, ok := dataField(body, "status"); ok {
			status, _ = s.(string)
		}
		fmt.Printf("Status: %s\n", status)
	}
	if status != "completed" {
		color.Red("Document did not reach 'completed' (got '%s')", status)
		os.Exit(1)
	}

	// 5. Run Query
	color.Yellow("\n[USER] 5. Process Query")
	queryReq := map[string]interface{}{
		"query": "How efficient are modern residential solar panels?",
	}
	resp, body, err = sendRequest("POST", "/query/v1", userToken, queryReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var queryResp map[string]interface{}
	json.Unmarshal(body, &queryResp)
	// Concise printing to avoid a huge source dump
	if data, ok := queryResp["data"].(map[string]interface{}); ok {
		fmt.Printf("Answer: %v\n", data["answer"])
		fmt.Printf("Language: %v | Confidence: %v | Cached: %v\n", data["language"], data["confidence"], data["cached"])
		if citations, ok := data["citations"].([]interface{}); ok {
			fmt.Printf("Citations: %d\n", len(citations))
		}
	} else {
		prettyPrint(queryResp)
	}

	// 6. Same query again, should come from cache
	color.Yellow("\n[USER] 6. Repeat Query (cache check)")
	resp, body, err = sendRequest("POST", "/query/v1", userToken, queryReq)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		if cached, ok := dataField(body, "cached"); ok {
			fmt.Printf("Cached: %v\n", cached)
		}
	}

	// 7. Agent Stats
	color.Yellow("\n[USER] 7. Agent Stats")
	resp, body, err = sendRequest("GET", "/query/v1/stats", userToken, nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		var statsResp map[string]interface{}
		json.Unmarshal(body, &statsResp)
		prettyPrint(statsResp)
	}

	// 8. Cleanup
	color.Yellow("\n[USER] 8. Cleanup: Delete Test Document")
	resp, body, err = sendRequest("DELETE", "/document/v1/"+documentID, userToken, nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		var deleteResp map[string]interface{}
		json.Unmarshal(body, &deleteResp)
		prettyPrint(deleteResp)
	}

	color.Cyan("\n✅ Test Sequence Complete")
}
