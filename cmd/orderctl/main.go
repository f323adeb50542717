// orderctl is a small CLI client for the coffee order API.
//
//	# Start an order and wait for its result:
//	orderctl -order-id 123 -drink latte -size M
//
//	# Start, query status once, then wait:
//	orderctl -order-id 456 -drink mocha -size L -query
//
//	# Start and cancel after one second:
//	orderctl -order-id 789 -drink espresso -size S -cancel-after 1s
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "gateway base URL")
	orderID := flag.String("order-id", "", "unique order identifier (generated when empty)")
	drink := flag.String("drink", "", "drink name, e.g. latte")
	size := flag.String("size", "", "drink size: S, M or L")
	query := flag.Bool("query", false, "query order status once after starting")
	cancelAfter := flag.Duration("cancel-after", 0, "delay before sending a cancel signal (0 disables)")
	flag.Parse()

	if *drink == "" || *size == "" {
		log.Fatal("orderctl: -drink and -size are required")
	}

	client := &http.Client{Timeout: 5 * time.Minute}

	started, err := startOrder(client, *addr, *orderID, *drink, *size)
	if err != nil {
		log.Fatalf("orderctl: start order: %v", err)
	}
	id := started["order_id"].(string)
	log.Printf("order %s started", id)

	if *query {
		status, err := getJSON(client, *addr+"/orders/"+id)
		if err != nil {
			log.Fatalf("orderctl: query status: %v", err)
		}
		log.Printf("status: %s", status)
	}

	if *cancelAfter > 0 {
		time.Sleep(*cancelAfter)
		log.Printf("cancelling order %s", id)
		resp, err := client.Post(*addr+"/orders/"+id+"/cancel", "application/json", nil)
		if err != nil {
			log.Fatalf("orderctl: cancel: %v", err)
		}
		resp.Body.Close()
	}

	result, err := getJSON(client, *addr+"/orders/"+id+"/result")
	if err != nil {
		log.Fatalf("orderctl: fetch result: %v", err)
	}
	fmt.Println(string(result))
}

func startOrder(client *http.Client, addr, orderID, drink, size string) (map[string]any, error) {
	body, err := json.Marshal(map[string]string{
		"order_id": orderID,
		"drink":    drink,
		"size":     size,
	})
	if err != nil {
		return nil, err
	}

	resp, err := client.Post(addr+"/orders", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func getJSON(client *http.Client, url string) ([]byte, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}
	return raw, nil
}
