package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"servimarket/internal/metrics"

	"github.com/sirupsen/logrus"
)

var ErrEmailSenderNotConfigured = errors.New("email sender not configured")

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
	AppBaseURL  string
}

// NotificationError is reported on the dispatcher's error channel when a
// notification could not be delivered.
type NotificationError struct {
	Notification Notification
	Err          error
}

// Dispatcher delivers notifications on background workers. Dispatch never
// blocks: when the queue is full the notification is dropped and logged.
// Delivery errors go to an error channel that is drained into the logger.
type Dispatcher struct {
	sender  EmailSender
	logger  *logrus.Logger
	metrics *metrics.Metrics
	config  DispatcherConfig

	jobs   chan Notification
	errs   chan NotificationError
	mutex  sync.RWMutex
	closed bool

	workers sync.WaitGroup
	drain   sync.WaitGroup
}

func NewDispatcher(sender EmailSender, logger *logrus.Logger, meter *metrics.Metrics, config DispatcherConfig) *Dispatcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		sender:  sender,
		logger:  logger,
		metrics: meter,
		config:  config,
		jobs:    make(chan Notification, config.QueueSize),
		errs:    make(chan NotificationError, config.QueueSize),
	}
}

func (d *Dispatcher) Start() {
	d.drain.Add(1)
	go d.logErrors()
	for i := 0; i < d.config.Workers; i++ {
		d.workers.Add(1)
		go d.work()
	}
}

func (d *Dispatcher) Dispatch(notification Notification) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	if d.closed {
		d.logger.WithField("kind", notification.Kind).Warn("notification dispatched after shutdown")
		return
	}
	select {
	case d.jobs <- notification:
	default:
		d.metrics.IncNotificationDropped()
		d.logger.WithFields(logrus.Fields{
			"kind":    notification.Kind,
			"user_id": notification.UserID,
		}).Warn("notification queue full, dropping notification")
	}
}

// Close stops accepting notifications and waits until queued ones are sent.
func (d *Dispatcher) Close() {
	d.mutex.Lock()
	if d.closed {
		d.mutex.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mutex.Unlock()

	d.workers.Wait()
	close(d.errs)
	d.drain.Wait()
}

func (d *Dispatcher) work() {
	defer d.workers.Done()
	for notification := range d.jobs {
		if err := d.send(notification); err != nil {
			d.metrics.IncNotificationFailure(string(notification.Kind))
			d.errs <- NotificationError{Notification: notification, Err: err}
			continue
		}
		d.metrics.IncNotificationSent(string(notification.Kind))
	}
}

func (d *Dispatcher) send(notification Notification) error {
	if d.sender == nil {
		return ErrEmailSenderNotConfigured
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.config.SendTimeout)
	defer cancel()
	return d.sender.Send(ctx, RenderNotification(notification, d.config.AppBaseURL))
}

func (d *Dispatcher) logErrors() {
	defer d.drain.Done()
	for failure := range d.errs {
		d.logger.WithError(failure.Err).WithFields(logrus.Fields{
			"kind":    failure.Notification.Kind,
			"user_id": failure.Notification.UserID,
		}).Error("verification notification failed")
	}
}
