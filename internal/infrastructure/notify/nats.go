package notify

import (
	"context"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
)

const defaultNATSSubject = "starleague.draft.events"

type NATSConfig struct {
	URL     string
	Subject string
	// ClientName shows up in the NATS server connection list.
	ClientName string
}

// NATSNotifier publishes notifications on one core NATS subject. Delivery is
// at most once; subscribers poll the state endpoint for anything they missed.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	logger  *logging.Logger
}

func NewNATSNotifier(cfg NATSConfig, logger *logging.Logger) (*NATSNotifier, error) {
	if logger == nil {
		logger = logging.Default()
	}
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}
	if name := strings.TrimSpace(cfg.ClientName); name != "" {
		opts = append(opts, nats.Name(name))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, crerr.Wrapf(err, "connect nats url=%s", url)
	}
	return newNATSNotifier(conn, cfg.Subject, logger), nil
}

func newNATSNotifier(conn *nats.Conn, subject string, logger *logging.Logger) *NATSNotifier {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = defaultNATSSubject
	}
	return &NATSNotifier{conn: conn, subject: subject, logger: logger}
}

func (p *NATSNotifier) Name() string {
	return "nats"
}

func (p *NATSNotifier) Notify(ctx context.Context, n draft.Notification) error {
	body, err := sonic.Marshal(n)
	if err != nil {
		return crerr.Wrap(err, "marshal draft notification")
	}

	msg := nats.NewMsg(p.subject)
	msg.Header.Set("Draft-Action", n.Action)
	msg.Data = body
	if err := p.conn.PublishMsg(msg); err != nil {
		return crerr.Wrapf(err, "publish nats subject=%s", p.subject)
	}

	p.logger.DebugContext(ctx, "draft notification delivered", "sink", p.Name(), "action", n.Action, "subject", p.subject)
	return nil
}

// Close flushes pending messages before closing the connection.
func (p *NATSNotifier) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return crerr.Wrap(err, "drain nats connection")
	}
	return nil
}
