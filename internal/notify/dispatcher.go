package notify

import (
	"context"
	"sync"
	"time"

	"github.com/BatmanBruc/neural-bot/internal/messages"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

const sendTimeout = 10 * time.Second

// Sender is the part of *bot.Bot the dispatcher needs.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type Notification struct {
	ChatID      int64
	Text        string
	ReplyMarkup models.ReplyMarkup
}

type Config struct {
	Workers int
}

// Dispatcher delivers notifications on a pool of workers. Delivery is best
// effort: failures are logged and dropped.
type Dispatcher struct {
	sender  Sender
	workers int
	log     zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	queue   chan Notification
}

func NewDispatcher(sender Sender, log zerolog.Logger, config Config) *Dispatcher {
	if config.Workers <= 0 {
		config.Workers = 3
	}

	ctx, cancel := context.WithCancel(context.Background())

	queueSize := config.Workers * 2
	if queueSize < 10 {
		queueSize = 10
	}

	return &Dispatcher{
		sender:  sender,
		workers: config.Workers,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		queue:   make(chan Notification, queueSize),
	}
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.log.Info().Int("workers", d.workers).Msg("notification dispatcher started")

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop delivers what is already queued, then stops the workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	d.log.Info().Msg("notification dispatcher stopped")
}

// Enqueue schedules a notification without blocking the caller.
func (d *Dispatcher) Enqueue(n Notification) {
	if n.ChatID == 0 {
		return
	}
	select {
	case d.queue <- n:
		return
	default:
	}
	go func() {
		select {
		case d.queue <- n:
		case <-d.ctx.Done():
			d.log.Warn().Int64("chat_id", n.ChatID).Msg("notification dropped: dispatcher stopped")
		}
	}()
}

// Notify is Enqueue for a plain HTML text.
func (d *Dispatcher) Notify(chatID int64, text string, markup models.ReplyMarkup) {
	d.Enqueue(Notification{ChatID: chatID, Text: text, ReplyMarkup: markup})
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			d.drain(id)
			return
		case n := <-d.queue:
			d.deliver(id, n)
		}
	}
}

func (d *Dispatcher) drain(id int) {
	for {
		select {
		case n := <-d.queue:
			d.deliver(id, n)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(id int, n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	_, err := d.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      n.ChatID,
		Text:        n.Text,
		ParseMode:   messages.ParseModeHTML,
		ReplyMarkup: n.ReplyMarkup,
	})
	if err != nil {
		d.log.Warn().Err(err).Int("worker", id).Int64("chat_id", n.ChatID).Msg("notification not delivered")
	}
}
