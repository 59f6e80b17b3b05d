package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/channels"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/domain"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/engine"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/internal/world"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/api"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/hexmap"
	"github.com/MathiasGruber/TheNinjaRPG-sub004/pkg/logger"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между Websocket и движком.
// Подписки на каналы синхронизации живут столько же, сколько сокет:
// все пуши из топиков пользователя/сектора/боя пересылаются в Send.
type Client struct {
	Engine *engine.Service
	Conn   *websocket.Conn
	Send   chan api.ServerResponse
	UnitID string

	// cancel гасит все подписки этого сокета
	cancel context.CancelFunc
	ctx    context.Context

	// Топики, на которые уже подписаны (защита от дублей)
	subscribed map[string]bool
}

func NewClient(eng *engine.Service, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		Engine:     eng,
		Conn:       conn,
		Send:       make(chan api.ServerResponse, 256),
		ctx:        ctx,
		cancel:     cancel,
		subscribed: make(map[string]bool),
	}
}

// subscribe привязывает топик к сокету (идемпотентно)
func (c *Client) subscribe(topic string) {
	if c.subscribed[topic] {
		return
	}
	c.subscribed[topic] = true

	err := c.Engine.Hub.Subscribe(c.ctx, topic, func(payload []byte) {
		var msg api.ServerResponse
		if err := json.Unmarshal(payload, &msg); err != nil {
			logger.Log.WithError(err).Debug("bad push payload")
			return
		}
		select {
		case c.Send <- msg:
		default:
			// Канал забит - событие теряется. Клиент все равно обязан
			// перечитывать полный снапшот после пропусков.
		}
	})
	if err != nil {
		logger.Log.WithError(err).Warnf("failed to subscribe %s", topic)
	}
}

// readPump читает команды от клиента
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		if err := c.Conn.Close(); err != nil {
			logger.Log.WithError(err).Debug("failed to close websocket connection")
		}
		logger.Log.WithField("unit_id", c.UnitID).Info("Client disconnected")
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logger.Log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	// 1. HANDSHAKE (LOGIN)
	var loginCmd api.ClientCommand
	if err := c.Conn.ReadJSON(&loginCmd); err != nil {
		logger.Log.Warn("Handshake failed")
		return
	}

	c.UnitID = loginCmd.Token
	if c.UnitID == "" {
		logger.Log.Warn("Handshake without token")
		return
	}

	// 2. ПОИСК ИЛИ СОЗДАНИЕ ЮНИТА
	u, err := c.Engine.Store.GetUnit(c.UnitID)
	if err != nil {
		logger.Log.WithError(err).Error("login failed")
		return
	}
	if u == nil {
		u = spawnUnit(c.UnitID)
		if err := c.Engine.Store.SaveUnit(u); err != nil {
			logger.Log.WithError(err).Error("spawn failed")
			return
		}
		logger.Log.Infof("Unit %s not found. Spawned in %s", c.UnitID, u.SectorID)
	}

	logger.Log.WithFields(logrus.Fields{
		"unit_id": c.UnitID,
		"sector":  u.SectorID,
	}).Info("Client logged in")

	// 3. ПОДПИСКИ: личный канал + канал текущего сектора (+ боя)
	c.subscribe(channels.UserTopic(c.UnitID))
	c.subscribe(channels.SectorTopic(u.SectorID))
	if u.BattleID != "" {
		c.subscribe(channels.BattleTopic(u.BattleID))
	}

	// Отправляем INIT (триггер первой отрисовки)
	c.sendInit(u)

	// 4. ЦИКЛ ЧТЕНИЯ КОМАНД
	for {
		var cmd api.ClientCommand
		if err := c.Conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Errorf("WS Error: %v", err)
			}
			break
		}
		c.dispatch(cmd)
	}
}

// dispatch выполняет одну команду и кладет ответ в Send
func (c *Client) dispatch(cmd api.ClientCommand) {
	switch cmd.Action {
	case api.CmdInit:
		u, err := c.Engine.Store.GetUnit(c.UnitID)
		if err != nil || u == nil {
			c.Send <- api.ServerResponse{Type: api.TypeRejection,
				Rejection: domain.NewRejection(domain.RejectUnknownUnit, "re-login required")}
			return
		}
		c.sendInit(u)

	case api.CmdLocalMove:
		var p api.MovePayload
		if !c.decode(cmd.Payload, &p) {
			return
		}
		outcome, rejection, err := c.Engine.RequestLocalMove(c.UnitID, hexmap.Coord{Col: p.Col, Row: p.Row})
		if c.replyError(err, rejection) {
			return
		}
		c.Send <- api.ServerResponse{
			Type:    api.TypeMoveResult,
			Unit:    outcome.Unit,
			Village: outcome.Village,
		}

	case api.CmdTravelStart:
		var p api.TravelPayload
		if !c.decode(cmd.Payload, &p) {
			return
		}
		eta, rejection, err := c.Engine.RequestGlobalTravelStart(c.UnitID, p.DestSector)
		if c.replyError(err, rejection) {
			return
		}
		c.Send <- api.ServerResponse{Type: api.TypeTravelETA, EtaSeconds: eta}

	case api.CmdTravelFinish:
		u, rejection, err := c.Engine.RequestGlobalTravelFinish(c.UnitID)
		if c.replyError(err, rejection) {
			return
		}
		// Юнит в новом секторе - переключаем подписку
		c.subscribe(channels.SectorTopic(u.SectorID))
		c.Send <- api.ServerResponse{Type: api.TypeMoveResult, Unit: u}

	case api.CmdBattleAction:
		var p api.BattleActionPayload
		if !c.decode(cmd.Payload, &p) {
			return
		}
		c.subscribe(channels.BattleTopic(p.BattleID))
		b, rejection, err := c.Engine.SubmitBattleAction(p, c.UnitID)
		if c.replyError(err, rejection) {
			return
		}
		c.Send <- api.ServerResponse{Type: api.TypeBattleUpdate, Battle: b}

	case api.CmdQueueDuel:
		b, rejection, err := c.Engine.Matchmaker.EnqueueDuel(c.UnitID)
		if c.replyError(err, rejection) {
			return
		}
		if b == nil {
			// Соперника пока нет - ждем уведомления в личном канале
			c.Send <- api.ServerResponse{Type: api.TypeNotification, Message: "queued for duel"}
			return
		}
		c.subscribe(channels.BattleTopic(b.ID))
		c.Send <- api.ServerResponse{Type: api.TypeBattleUpdate, Battle: b}

	case api.CmdQueueLeave:
		rejection, err := c.Engine.Matchmaker.Leave(c.UnitID)
		if c.replyError(err, rejection) {
			return
		}
		c.Send <- api.ServerResponse{Type: api.TypeNotification, Message: "left duel queue"}

	case api.CmdPath:
		var p api.PathPayload
		if !c.decode(cmd.Payload, &p) {
			return
		}
		u, err := c.Engine.Store.GetUnit(c.UnitID)
		if err != nil || u == nil {
			c.replyError(err, domain.NewRejection(domain.RejectUnknownUnit, "re-login required"))
			return
		}
		gridID := u.SectorID
		if u.BattleID != "" {
			gridID = u.BattleID
		}
		path, err := c.Engine.ComputeShortestPath(gridID, p.Origin, p.Dest)
		if err != nil {
			c.replyError(err, nil)
			return
		}
		c.Send <- api.ServerResponse{Type: api.TypePathResult, Path: path}

	default:
		c.Send <- api.ServerResponse{Type: api.TypeRejection,
			Rejection: domain.NewRejection(domain.RejectUnknownAction, "unknown command: "+cmd.Action)}
	}
}

// sendInit шлет полное состояние юнита и тайлы его сектора
func (c *Client) sendInit(u *domain.Unit) {
	resp := api.ServerResponse{Type: api.TypeInit, Unit: u}
	if sector, err := c.Engine.Registry.Sector(u.SectorID); err == nil {
		resp.Grid = sector.Grid.Tiles()
	}
	c.Send <- resp
}

func (c *Client) decode(raw json.RawMessage, v interface{}) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		c.Send <- api.ServerResponse{Type: api.TypeRejection,
			Rejection: domain.NewRejection(domain.RejectUnknownAction, "bad payload: "+err.Error())}
		return false
	}
	if validator, ok := v.(api.Validator); ok {
		if err := validator.Validate(); err != nil {
			c.Send <- api.ServerResponse{Type: api.TypeRejection,
				Rejection: domain.NewRejection(domain.RejectUnknownAction, err.Error())}
			return false
		}
	}
	return true
}

// replyError переводит инфраструктурные ошибки и отказы в ответ клиенту.
// Возвращает true, если дальше отвечать нечем.
func (c *Client) replyError(err error, rejection *domain.Rejection) bool {
	if err != nil {
		logger.Log.WithError(err).Error("storage failure")
		c.Send <- api.ServerResponse{Type: api.TypeRejection,
			Rejection: domain.NewRejection("STORAGE_ERROR", "temporary failure, retry")}
		return true
	}
	if rejection != nil {
		c.Send <- api.ServerResponse{Type: api.TypeRejection, Rejection: rejection}
		return true
	}
	return false
}

// spawnUnit создает нового юнита в стартовом секторе
func spawnUnit(unitID string) *domain.Unit {
	return &domain.Unit{
		ID:       unitID,
		Name:     unitID,
		SectorID: world.SectorID(0, 0),
		Pos:      hexmap.Coord{Col: domain.SectorWidth / 2, Row: domain.SectorHeight / 2},
		Status:   domain.StatusAwake,
		HP:       100,
		MaxHP:    100,
		Strength: 10,
		// Новичок сразу готов действовать
		LastActionAt: time.Now().Add(-domain.SectorCadence),
	}
}

// writePump отправляет данные клиенту + Ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			logger.Log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logger.Log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				logger.Log.WithError(err).Debug("write json message failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
