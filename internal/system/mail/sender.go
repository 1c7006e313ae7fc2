/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package mail delivers outbound email through a configured provider.
package mail

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/wso2/email-gateway-service/internal/system/config"
	"github.com/wso2/email-gateway-service/internal/system/log"
)

// Sender delivers a message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NewSender builds the sender selected by mail.provider.
func NewSender(cfg config.MailConfig) (Sender, error) {

	switch strings.ToLower(cfg.Provider) {
	case "smtp":
		if cfg.SMTP.Host == "" {
			return nil, errors.New("mail.smtp.host is required for the smtp provider")
		}
		return NewSMTPSender(cfg.SMTP, cfg.MessageIDDomain), nil
	case "log", "":
		return NewLogSender(cfg.SMTP.From, cfg.MessageIDDomain), nil
	default:
		return nil, errors.Errorf("unsupported mail provider %q", cfg.Provider)
	}
}

// LogSender writes messages to the log instead of delivering them. For development setups.
type LogSender struct {
	from   string
	domain string
}

func NewLogSender(from, domain string) *LogSender {
	return &LogSender{from: from, domain: domain}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (string, error) {

	if msg.MessageID == "" {
		msg.MessageID = NewMessageID(s.domain)
	}
	log.GetLogger().WithContext(ctx).Info("Email accepted by log sender",
		log.String("message_id", msg.MessageID),
		log.Int("recipients", len(msg.Recipients())),
		log.Int("attachments", len(msg.Attachments)),
		log.String("subject", msg.Subject))
	return msg.MessageID, nil
}
