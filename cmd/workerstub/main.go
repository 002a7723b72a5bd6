// workerstub stands in for the external analysis worker during development:
// it consumes job descriptors and immediately publishes canned completions.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

const (
	jobChannel              = "generate-hero-channel"
	completionChannel       = "hero-completion-channel"
	publicCompletionChannel = "public-hero-completion-channel"
)

type job struct {
	UserID    int64  `json:"userId"`
	BookID    int64  `json:"bookId"`
	Text      string `json:"text"`
	SessionID string `json:"sessionId"`
}

func main() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	sub := redis.NewClient(&redis.Options{Addr: addr})

	pubsub := sub.Subscribe(ctx, jobChannel)
	defer pubsub.Close()
	log.Printf("worker stub listening on %s", jobChannel)

	for msg := range pubsub.Channel() {
		var j job
		if err := json.Unmarshal([]byte(msg.Payload), &j); err != nil {
			log.Printf("bad job payload: %v", err)
			continue
		}

		if j.SessionID != "" {
			completion := map[string]interface{}{
				"sessionId": j.SessionID,
				"results": []map[string]string{
					{"modelName": "OCEAN", "traitName": "openness", "traitValue": "high"},
				},
			}
			payload, _ := json.Marshal(completion)
			if err := client.Publish(ctx, publicCompletionChannel, payload).Err(); err != nil {
				log.Printf("publish public completion: %v", err)
			}
			log.Printf("completed public job for session %s", j.SessionID)
			continue
		}

		payload, _ := json.Marshal(map[string]int64{"userId": j.UserID, "bookId": j.BookID})
		if err := client.Publish(ctx, completionChannel, payload).Err(); err != nil {
			log.Printf("publish completion: %v", err)
		}
		log.Printf("completed job for user %d book %d", j.UserID, j.BookID)
	}
}
