package service

import (
	"fmt"
	"html"
	"strings"
)

// RenderNotification builds the email for a notification.
func RenderNotification(notification Notification, appBaseURL string) Email {
	name := strings.TrimSpace(notification.FullName)
	if name == "" {
		name = "there"
	}
	link := strings.TrimRight(appBaseURL, "/") + "/account/verification"
	if strings.TrimSpace(appBaseURL) == "" {
		link = ""
	}

	var subject, text, body string
	switch notification.Kind {
	case NotificationSubmitted:
		subject = "We received your identity documents"
		text = fmt.Sprintf("Hi %s, we received your identity documents. Our team will review them shortly.", name)
	case NotificationApproved:
		subject = "Your identity has been verified"
		text = fmt.Sprintf("Hi %s, your identity verification was approved. Your profile now shows the verified badge.", name)
	case NotificationRejected:
		subject = "Your identity verification needs attention"
		text = fmt.Sprintf("Hi %s, we could not verify your identity.", name)
		if notification.RejectionReason != nil {
			text += fmt.Sprintf(" Reason: %s.", *notification.RejectionReason)
		}
		text += " You can submit new documents at any time."
	case NotificationReviewRequested:
		subject = "New identity verification to review"
		text = fmt.Sprintf("%s (%s) submitted identity documents for review.", name, notification.UserID)
	default:
		subject = "Identity verification update"
		text = fmt.Sprintf("Hi %s, there is an update on your identity verification.", name)
	}

	body = "<p>" + html.EscapeString(text) + "</p>"
	if link != "" && notification.Kind != NotificationReviewRequested {
		text += "\n\n" + link
		body += fmt.Sprintf("<p><a href=\"%s\">View verification status</a></p>", html.EscapeString(link))
	}

	return Email{
		To:      notification.Email,
		Subject: subject,
		Text:    text,
		HTML:    body,
	}
}
