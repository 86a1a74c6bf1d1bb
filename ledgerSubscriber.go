package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"cloud.google.com/go/pubsub"
	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/mmdatafocus/rentals_backend/workflow"
	"github.com/sirupsen/logrus"
)

type refMutex struct {
	sync.Mutex
	holders int
}

// referenceLocks serialises work per reference. Entries are dropped once no
// goroutine holds or waits on them.
type referenceLocks struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

func newReferenceLocks() *referenceLocks {
	return &referenceLocks{locks: make(map[string]*refMutex)}
}

func referenceKey(referenceType string, referenceId int) string {
	return fmt.Sprintf("%s:%d", referenceType, referenceId)
}

// lock blocks until key is free and returns its unlock func.
func (l *referenceLocks) lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &refMutex{}
		l.locks[key] = m
	}
	m.holders++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.holders--
		if m.holders == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *referenceLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

var ledgerLocks = newReferenceLocks()

// subscriberEnabled reports whether this instance should consume PUBSUB_SUBSCRIPTION.
func subscriberEnabled() bool {
	return config.PubSubEnabled() && os.Getenv("PUBSUB_SUBSCRIPTION") != ""
}

// RunLedgerSubscriber reconciles invoices as payment events arrive. It returns
// once the subscription is set up; messages are received in the background
// until ctx is cancelled.
func RunLedgerSubscriber(ctx context.Context) error {
	logger := config.GetLogger()
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}
	topic, err := config.CreateTopicIfNotExists(client, os.Getenv("PUBSUB_TOPIC"))
	if err != nil {
		return err
	}
	sub, err := config.CreateSubscriptionIfNotExists(client, os.Getenv("PUBSUB_SUBSCRIPTION"), topic)
	if err != nil {
		return err
	}
	sub.ReceiveSettings.MaxOutstandingMessages = 10

	callback := func(ctx context.Context, msg *pubsub.Message) {
		m := config.PubSubMessage{}
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			config.LogError(logger, "ledgerSubscriber.go", "RunLedgerSubscriber", "Unmarshaling pubsub message", string(msg.Data), err)
			msg.Ack()
			return
		}

		// one reconciliation per invoice at a time
		unlock := ledgerLocks.lock(referenceKey(m.ReferenceType, m.ReferenceId))
		defer unlock()

		ctx = utils.SetUserNameInContext(ctx, "System")
		ctx = utils.SetCorrelationIdInContext(ctx, m.CorrelationId)
		if err := workflow.HandleDomainEvent(ctx, m); err != nil {
			logger.WithFields(logrus.Fields{
				"field":          "LedgerSubscriber",
				"event_type":     m.EventType,
				"reference_type": m.ReferenceType,
				"reference_id":   m.ReferenceId,
				"message_id":     msg.ID,
			}).Error("pubsub processing failed: " + err.Error())
			msg.Nack()
			return
		}
		msg.Ack()
	}

	go func() {
		if err := sub.Receive(ctx, callback); err != nil {
			config.LogError(logger, "ledgerSubscriber.go", "RunLedgerSubscriber", "Failed to receive messages", nil, err)
		}
	}()
	return nil
}
