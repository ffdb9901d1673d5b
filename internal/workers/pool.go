package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/hetulpatel/PropLines/internal/kafka"
	"github.com/hetulpatel/PropLines/internal/logging"
	"github.com/hetulpatel/PropLines/internal/models"
)

type Handler func(context.Context, *models.EventSnapshot) error

// MessageReader is the part of *kafka.Reader a worker consumes from.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
}

// Run starts workerCount consumers in one group and blocks until ctx is done.
func Run(ctx context.Context, brokers []string, topic, group string, workerCount int, handler Handler) {
	if workerCount <= 0 {
		workerCount = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			reader := kafka.NewReader(brokers, topic, group)
			defer reader.Close()
			logging.Debugf("[worker %d] consuming %s as %s", id, topic, group)
			consume(ctx, id, reader, handler)
		}(i)
	}

	<-ctx.Done()
	wg.Wait()
}

func consume(ctx context.Context, id int, reader MessageReader, handler Handler) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Errorf("[worker %d] read: %v", id, err)
			continue
		}

		snapshot, err := decodeSnapshot(msg)
		if err != nil {
			logging.Errorf("[worker %d] partition %d offset %d: %v", id, msg.Partition, msg.Offset, err)
			continue
		}

		if handler != nil {
			if err := handler(ctx, snapshot); err != nil {
				logging.Errorf("[worker %d] handle %s: %v", id, snapshot.Event.EventID, err)
			}
		}
	}
}

func decodeSnapshot(msg kafkago.Message) (*models.EventSnapshot, error) {
	var snapshot models.EventSnapshot
	if err := json.Unmarshal(msg.Value, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot.Event.EventID == "" {
		return nil, fmt.Errorf("snapshot without event id")
	}
	return &snapshot, nil
}
