package telemetry

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// MQTTOptions - параметры подключения к брокеру датчиков
type MQTTOptions struct {
	BrokerURL string
	ClientID  string
	Topic     string
	Username  string
	Password  string
	QoS       byte
}

// NewMQTTClient собирает клиента, который после каждого (пере)подключения подписывается на топик
func NewMQTTClient(opts MQTTOptions, processor *Processor, logger *logrus.Logger) mqtt.Client {
	log := logger.WithFields(logrus.Fields{
		"component": "mqtt",
		"broker":    opts.BrokerURL,
		"topic":     opts.Topic,
	})

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// ошибка уже залогирована процессором
		_, _ = processor.Handle(ctx, msg.Topic(), msg.Payload())
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetOrderMatters(false).
		SetCleanSession(true).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	clientOpts.OnConnect = func(c mqtt.Client) {
		log.Info("Connected to MQTT broker")
		if token := c.Subscribe(opts.Topic, opts.QoS, handler); token.Wait() && token.Error() != nil {
			log.WithError(token.Error()).Error("MQTT subscribe failed")
		} else {
			log.Info("Subscribed to air quality topic")
		}
	}
	clientOpts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	}

	return mqtt.NewClient(clientOpts)
}

// ConnectWithBackoff подключается к брокеру, удваивая паузу между попытками до max
func ConnectWithBackoff(ctx context.Context, client mqtt.Client, start, max time.Duration, logger *logrus.Logger) error {
	backoff := start
	for {
		token := client.Connect()
		if token.Wait() && token.Error() == nil {
			return nil
		}
		logger.WithError(token.Error()).WithField("retry_in", backoff.String()).Warn("MQTT connect failed")

		select {
		case <-time.After(backoff):
			if backoff < max {
				backoff *= 2
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
