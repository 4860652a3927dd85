package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Type string

const (
	UserSignedUp   Type = "user_signed_up"
	PostCreated    Type = "post_created"
	PostUpdated    Type = "post_updated"
	PostDeleted    Type = "post_deleted"
	CommentCreated Type = "comment_created"
	VoteCast       Type = "vote_cast"
)

// Event is the JSON value published for each state change.
type Event struct {
	Type     Type      `json:"type"`
	Username string    `json:"username"`
	PostID   int64     `json:"post_id,omitempty"`
	Vote     string    `json:"vote,omitempty"`
	Score    *int      `json:"score,omitempty"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// MessageWriter is the part of kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	QueueSize    int
}

// ErrQueueFull is returned by Publish when the writer has fallen behind.
var ErrQueueFull = errors.New("events: publish queue full")

var errClosed = errors.New("events: publisher closed")

const defaultQueueSize = 256

// KafkaPublisher writes events to a topic, keyed by post id so one post's
// events stay ordered within a partition. Publish only enqueues; one
// goroutine drains the queue.
type KafkaPublisher struct {
	w       MessageWriter
	timeout time.Duration
	log     logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
	queue  chan kafka.Message
	done   chan struct{}
}

func NewKafkaPublisher(cfg KafkaConfig, log logrus.FieldLogger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
		// one message per write, no 1s batch timer
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
	return NewPublisherWithWriter(w, cfg.WriteTimeout, cfg.QueueSize, log), nil
}

// NewPublisherWithWriter starts the drain goroutine. Write failures are
// logged to log; queueSize <= 0 selects the default.
func NewPublisherWithWriter(w MessageWriter, timeout time.Duration, queueSize int, log logrus.FieldLogger) *KafkaPublisher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	p := &KafkaPublisher{
		w:       w,
		timeout: timeout,
		log:     log.WithField("module", "events"),
		queue:   make(chan kafka.Message, queueSize),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish encodes e and queues it. It never waits on the broker.
func (p *KafkaPublisher) Publish(_ context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(e.PostID, 10)),
		Value: data,
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errClosed
	}
	select {
	case p.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx := context.Background()
		cancel := context.CancelFunc(func() {})
		if p.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, p.timeout)
		}
		if err := p.w.WriteMessages(ctx, msg); err != nil {
			p.log.WithError(err).WithField("key", string(msg.Key)).Warn("kafka write failed")
		}
		cancel()
	}
}

// Close stops accepting events, flushes what is queued, and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.w.Close()
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
