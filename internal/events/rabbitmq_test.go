package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/josh-kwaku/corebank-ledger/internal/domain"
)

const testExchange = "ledger.events.test"

func startRabbit(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3-alpine",
			ExposedPorts: []string{"5672/tcp"},
			Env: map[string]string{
				"RABBITMQ_DEFAULT_USER": "ledger",
				"RABBITMQ_DEFAULT_PASS": "ledger",
			},
			WaitingFor: wait.ForLog("Server startup complete").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate rabbitmq container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("amqp://ledger:ledger@%s:%s/", host, port.Port())
}

// subscribe binds a throwaway queue to every routing key on the exchange.
func subscribe(t *testing.T, url string) <-chan amqp.Delivery {
	t.Helper()
	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ch, err := conn.Channel()
	require.NoError(t, err)
	require.NoError(t, ch.ExchangeDeclare(testExchange, "topic", true, false, false, false, nil))
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "#", testExchange, false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)
	return deliveries
}

func receive(t *testing.T, deliveries <-chan amqp.Delivery) amqp.Delivery {
	t.Helper()
	select {
	case d := <-deliveries:
		return d
	case <-time.After(10 * time.Second):
		t.Fatal("no event delivered")
		return amqp.Delivery{}
	}
}

func TestRabbitPublisher_RecoversLostConnection(t *testing.T) {
	url := startRabbit(t)
	deliveries := subscribe(t, url)
	ctx := context.Background()

	p, err := NewRabbitPublisher(url, testExchange)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	deposit := FromTransaction(domain.Transaction{
		ID: 1, AccountID: "6214202601010900100", Type: domain.TransactionTypeDeposit,
		Amount: 500, OccurredAt: time.Now().UTC(),
	}, 500)

	require.NoError(t, p.Publish(ctx, deposit))
	assert.Equal(t, "ledger.transaction.deposit", receive(t, deliveries).RoutingKey)

	require.NoError(t, p.conn.Close())
	require.NoError(t, p.Publish(ctx, deposit), "connection is redialled")
	receive(t, deliveries)

	require.NoError(t, p.channel.Close())
	require.NoError(t, p.Publish(ctx, deposit), "channel is reopened")
	receive(t, deliveries)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close(), "close is idempotent")
}
