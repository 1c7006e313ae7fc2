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

package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/wso2/email-gateway-service/internal/escalation/model"
	"github.com/wso2/email-gateway-service/internal/system/log"
	"github.com/wso2/email-gateway-service/internal/system/mail"
	"github.com/wso2/email-gateway-service/internal/system/workers"
)

// Notifier tells contacts about new escalation events. Delivery is best effort.
type Notifier interface {
	Notify(events []model.Event)
}

// MailNotifier mails each event to its contact from a background queue.
type MailNotifier struct {
	queue   *workers.Queue
	sender  mail.Sender
	timeout time.Duration
}

func NewMailNotifier(queue *workers.Queue, sender mail.Sender) *MailNotifier {
	return &MailNotifier{queue: queue, sender: sender, timeout: 30 * time.Second}
}

func (n *MailNotifier) Notify(events []model.Event) {
	for _, event := range events {
		event := event
		if !n.queue.Enqueue(func(ctx context.Context) { n.send(ctx, event) }) {
			log.GetLogger().Warn("Escalation notification dropped",
				log.Int64("event_id", event.ID), log.Int64("project_id", event.ProjectID))
		}
	}
}

func (n *MailNotifier) send(ctx context.Context, event model.Event) {

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	messageID, err := n.sender.Send(ctx, notificationMessage(event))
	if err != nil {
		log.GetLogger().Error("Failed to deliver escalation notification",
			log.Int64("event_id", event.ID), log.Int("level", event.Level), log.Error(err))
		return
	}
	log.GetLogger().Info("Escalation notification delivered",
		log.Int64("event_id", event.ID), log.Int("level", event.Level), log.String("message_id", messageID))
}

func notificationMessage(e model.Event) mail.Message {
	subject := fmt.Sprintf("[Escalation tier %d] Email delivery failing for %s", e.Level, e.ProjectName)
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>Emails sent by project <b>%s</b> are failing and have reached escalation tier %d.</p>
<p>Latest failure: <i>%s</i><br>Error: <code>%s</code></p>
<p>Acknowledge event #%d in the email admin console once you are on it.</p>`,
		html.EscapeString(e.ContactName), html.EscapeString(e.ProjectName), e.Level,
		html.EscapeString(e.EmailSubject), html.EscapeString(e.ErrorMessage), e.ID)
	return mail.Message{
		To:       []string{e.ContactEmail},
		Subject:  subject,
		HTMLBody: body,
	}
}
