package channels

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/logger"
)

// Hub - именованные pub/sub каналы поверх in-memory шины watermill.
// Один топик на сектор, на бой и на пользователя. Гарантии сознательно
// слабые: доставка не-более-одного-раза на событие, порядок только
// внутри топика, бэклога НЕТ - отвалившийся клиент обязан перечитать
// полный снапшот из хранилища, а не надеяться на дельты.
type Hub struct {
	bus *gochannel.GoChannel
}

func NewHub() *Hub {
	return &Hub{
		bus: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 64,
				// Без блокировки шина раскидывает каждое сообщение
				// подписчикам в отдельной горутине, и два подряд
				// Publish в один топик могут обогнать друг друга.
				// Цена гарантии порядка: обработчик подписки не имеет
				// права сам публиковать синхронно - Publish ждет Ack.
				BlockPublishUntilSubscriberAck: true,
			},
			watermill.NewStdLogger(false, false),
		),
	}
}

// Имена топиков

func SectorTopic(sectorID string) string { return "sector." + sectorID }
func BattleTopic(battleID string) string { return "battle." + battleID }
func UserTopic(userID string) string     { return "user." + userID }

// Publish сериализует payload и рассылает его текущим подписчикам топика
func (h *Hub) Publish(topic string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("channels: marshal for %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), raw)
	return h.bus.Publish(topic, msg)
}

// Subscribe подписывает обработчик на топик. Обработчик дергается
// последовательно в отдельной горутине до отмены ctx. Публиковать из
// обработчика нельзя: Publish блокируется до Ack этой же подписки.
func (h *Hub) Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error {
	msgs, err := h.bus.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("channels: subscribe %s: %w", topic, err)
	}

	go func() {
		for msg := range msgs {
			handler(msg.Payload)
			msg.Ack()
		}
		logger.Log.WithField("topic", topic).Debug("subscription drained")
	}()

	return nil
}

// Close останавливает шину и закрывает все подписки
func (h *Hub) Close() error {
	return h.bus.Close()
}
