// Package notify receives push payment notifications, the callback-style
// counterpart of status polling. When the gateway publishes a terminal
// transaction state the listener hands it to the same handler the poller
// would, so whichever signal arrives first settles the checkout.
package notify

import (
	"context"
	"encoding/json"

	pubnub "github.com/pubnub/go/v7"

	"zatix-checkout/pkg/logger"
)

// PaymentNotice is one published payment update.
type PaymentNotice struct {
	OrderID           int    `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
}

type Config struct {
	SubscribeKey string
	Channel      string
	UserID       string
}

// Listener subscribes to the payment notification channel and feeds
// decoded notices to the handler.
type Listener struct {
	pn      *pubnub.PubNub
	lis     *pubnub.Listener
	channel string
	handler func(PaymentNotice)
	log     logger.Logger
}

func NewListener(cfg Config, handler func(PaymentNotice), log logger.Logger) *Listener {
	if log == nil {
		log = logger.NewNop()
	}

	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.UserID))
	pnCfg.SubscribeKey = cfg.SubscribeKey

	return &Listener{
		pn:      pubnub.NewPubNub(pnCfg),
		lis:     pubnub.NewListener(),
		channel: cfg.Channel,
		handler: handler,
		log:     log,
	}
}

// Start subscribes and processes messages until ctx is cancelled.
func (l *Listener) Start(ctx context.Context) {
	l.pn.AddListener(l.lis)
	l.pn.Subscribe().Channels([]string{l.channel}).Execute()

	go l.processSubscription(ctx)
}

func (l *Listener) processSubscription(ctx context.Context) {
	for {
		select {
		case status := <-l.lis.Status:
			switch status.Category {
			case pubnub.PNConnectedCategory:
				l.log.Info("connected to pubnub", "channel", l.channel)

			case pubnub.PNReconnectedCategory:
				l.log.Info("reconnected to pubnub", "channel", l.channel)

			case pubnub.PNDisconnectedCategory:
				l.log.Warn("disconnected from pubnub", "channel", l.channel)

			default:
				l.log.Debug("pubnub status", "category", status.Category)
			}

		case message := <-l.lis.Message:
			notice, err := decodeNotice(message.Message)
			if err != nil {
				l.log.Warn("undecodable payment notification", "error", err)
				continue
			}
			l.handler(notice)

		case <-ctx.Done():
			l.pn.Unsubscribe().Channels([]string{l.channel}).Execute()
			return
		}
	}
}

// decodeNotice tolerates both string payloads and already-decoded maps,
// which is what the PubNub SDK hands over depending on publisher.
func decodeNotice(message any) (PaymentNotice, error) {
	var notice PaymentNotice

	switch m := message.(type) {
	case string:
		if err := json.Unmarshal([]byte(m), &notice); err != nil {
			return notice, err
		}
	default:
		raw, err := json.Marshal(m)
		if err != nil {
			return notice, err
		}
		if err := json.Unmarshal(raw, &notice); err != nil {
			return notice, err
		}
	}
	return notice, nil
}
