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

package mail

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/wso2/email-gateway-service/internal/system/config"
)

const smtpDialTimeout = 10 * time.Second

// SMTPSender delivers messages to an SMTP relay. STARTTLS is used whenever the relay offers it.
type SMTPSender struct {
	cfg    config.SMTPConfig
	domain string
}

func NewSMTPSender(cfg config.SMTPConfig, messageIDDomain string) *SMTPSender {
	return &SMTPSender{cfg: cfg, domain: messageIDDomain}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {

	if msg.From == "" {
		msg.From = s.cfg.From
	}
	if msg.MessageID == "" {
		msg.MessageID = NewMessageID(s.domain)
	}
	raw, err := Build(msg)
	if err != nil {
		return "", errors.Wrap(err, "failed to build message")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: smtpDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", errors.Wrapf(err, "failed to connect to %s", addr)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return "", errors.Wrap(err, "smtp handshake failed")
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return "", errors.Wrap(err, "starttls failed")
		}
	}
	if s.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return "", errors.Wrap(err, "smtp authentication failed")
		}
	}
	if err := c.Mail(msg.From); err != nil {
		return "", errors.Wrap(err, "MAIL FROM rejected")
	}
	for _, rcpt := range msg.Recipients() {
		if err := c.Rcpt(rcpt); err != nil {
			return "", errors.Wrapf(err, "RCPT TO %s rejected", rcpt)
		}
	}
	w, err := c.Data()
	if err != nil {
		return "", errors.Wrap(err, "DATA rejected")
	}
	if _, err := w.Write(raw); err != nil {
		return "", errors.Wrap(err, "failed to write message")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "message rejected")
	}
	_ = c.Quit()
	return msg.MessageID, nil
}
