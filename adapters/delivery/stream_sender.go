package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/authsvc/core"
	"github.com/layer-3/authsvc/ports"
)

// DefaultCodeTopic is the topic mailer workers consume code requests from.
const DefaultCodeTopic = "authsvc.two_fa_code"

// CodeRequested asks a mailer to deliver a two-factor code.
type CodeRequested struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Code      string `json:"code"`
}

// StreamSender hands codes to an out-of-process mailer over a watermill
// publisher (Redis streams in production).
type StreamSender struct {
	publisher message.Publisher
	topic     string
}

var _ ports.CodeSender = (*StreamSender)(nil)

func NewStreamSender(publisher message.Publisher, topic string) *StreamSender {
	if topic == "" {
		topic = DefaultCodeTopic
	}
	return &StreamSender{publisher: publisher, topic: topic}
}

func (s *StreamSender) SendCode(ctx context.Context, email core.Email, code core.TwoFACode) error {
	payload, err := json.Marshal(CodeRequested{
		Recipient: email.String(),
		Subject:   "Your login code",
		Code:      code.String(),
	})
	if err != nil {
		return fmt.Errorf("%w: marshal code request: %v", core.ErrDeliveryFailed, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := s.publisher.Publish(s.topic, msg); err != nil {
		return fmt.Errorf("%w: publish code request: %v", core.ErrDeliveryFailed, err)
	}
	return nil
}
