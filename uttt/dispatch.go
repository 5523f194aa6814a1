package uttt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"utttserver/models"
	"utttserver/uttt/actions"

	"go.uber.org/zap"
)

const (
	ActionCreatePrivate       = "createPrivate"
	ActionJoinMatch           = "joinMatch"
	ActionMatchmake           = "matchmake"
	ActionMakeMove            = "makeMove"
	ActionCheckStatus         = "checkStatus"
	ActionSubscribe           = "subscribe"
	ActionSpectateRandomMatch = "spectateRandomMatch"
	ActionStopMatchmake       = "stopMatchmake"
)

const unknownMsgID = "unknown"

// クライアントからのメッセージ。ポインタでフィールドの欠落と空値を区別する
type request struct {
	Action  *string         `json:"action"`
	MsgID   json.RawMessage `json:"msgID"`
	Name    *string         `json:"name"`
	Code    *string         `json:"code"`
	UserID  *string         `json:"userID"`
	Board   *string         `json:"board"`
	Square  *string         `json:"square"`
	Visible *bool           `json:"visible"`
}

// Dispatcher はクライアントのメッセージを試合の操作に振り分けます。
type Dispatcher struct {
	manager *actions.Manager
	logger  *zap.Logger
}

func NewDispatcher(manager *actions.Manager, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{manager: manager, logger: logger}
}

// Handle は接続ごとのハンドラで、各フレームに ProcessMessage の結果をJSONで返します。
func (d *Dispatcher) Handle(ctx context.Context, raw []byte, conn models.Conn) []byte {
	data, err := json.Marshal(d.ProcessMessage(ctx, raw, conn))
	if err != nil {
		d.logger.Error("Failed to encode response", zap.Error(err))
		return nil
	}
	return data
}

// ProcessMessage はクライアントのメッセージを一つ処理します。
// 問題は結果のフィールドで伝え、Go のエラーとしては返しません。
func (d *Dispatcher) ProcessMessage(ctx context.Context, raw []byte, conn models.Conn) map[string]interface{} {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		d.logger.Info("Malformed message", zap.Error(err))
		return errorResponse("Malformed message")
	}
	msgID := req.msgID()

	var resp map[string]interface{}
	switch {
	case req.Action == nil:
		resp = errorResponse("No action was provided")
	default:
		resp = d.dispatch(ctx, *req.Action, req, conn)
	}
	resp["msgID"] = msgID
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, action string, req request, conn models.Conn) map[string]interface{} {
	var resp map[string]interface{}
	switch action {
	case ActionCreatePrivate:
		resp = d.createPrivate(ctx, req, conn)
	case ActionJoinMatch:
		resp = d.joinMatch(ctx, req, conn)
	case ActionMatchmake:
		resp = d.matchmake(ctx, req, conn)
	case ActionMakeMove:
		resp = d.makeMove(ctx, req, conn)
	case ActionCheckStatus, ActionSubscribe, ActionSpectateRandomMatch:
		resp = d.status(ctx, action, req, conn)
	case ActionStopMatchmake:
		resp = d.stopMatchmake(ctx, req, conn)
	default:
		resp = errorResponse("Unknown action")
	}
	return resp
}

// クライアントの msgID を型に関係なくそのまま返す
func (r request) msgID() interface{} {
	if len(r.MsgID) == 0 || bytes.Equal(r.MsgID, []byte("null")) {
		return unknownMsgID
	}
	return r.MsgID
}

func (d *Dispatcher) createPrivate(ctx context.Context, req request, conn models.Conn) map[string]interface{} {
	if req.Name == nil {
		return missingField("name")
	}
	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}
	created, err := d.manager.CreateMatch(ctx, *req.Name, true, visible, conn)
	if err != nil {
		return d.internalError("createPrivate", err)
	}
	return map[string]interface{}{
		"error":  false,
		"code":   created.Code,
		"userID": created.UserID,
	}
}

func (d *Dispatcher) joinMatch(ctx context.Context, req request, conn models.Conn) map[string]interface{} {
	if req.Code == nil {
		return missingField("code")
	}
	if req.Name == nil {
		return missingField("name")
	}
	return d.join(ctx, *req.Code, *req.Name, conn)
}

func (d *Dispatcher) matchmake(ctx context.Context, req request, conn models.Conn) map[string]interface{} {
	if req.Name == nil {
		return missingField("name")
	}
	code, ok, err := d.manager.FetchOpenMatch(ctx)
	if err != nil {
		return d.internalError("matchmake", err)
	}
	if ok {
		return d.join(ctx, code, *req.Name, conn)
	}

	created, err := d.manager.CreateMatch(ctx, *req.Name, false, true, conn)
	if err != nil {
		return d.internalError("matchmake", err)
	}
	return map[string]interface{}{
		"error":  false,
		"code":   created.Code,
		"userID": created.UserID,
	}
}

func (d *Dispatcher) join(ctx context.Context, code, name string, conn models.Conn) map[string]interface{} {
	res, err := d.manager.JoinMatch(ctx, code, name, conn)
	if errors.Is(err, actions.ErrNameRequired) {
		return map[string]interface{}{
			"error":   true,
			"found":   true,
			"message": actions.NameRequiredMessage,
		}
	}
	if err != nil {
		return d.internalError("joinMatch", err)
	}
	if !res.Found {
		return notFound()
	}
	if res.Status != nil {
		return statusResponse(*res.Status)
	}
	resp := map[string]interface{}{
		"error":   false,
		"found":   true,
		"started": res.Started,
		"userID":  res.UserID,
		"code":    res.Code,
	}
	if res.GameConfig != nil {
		resp["gameConfig"] = res.GameConfig
	}
	return resp
}

func (d *Dispatcher) makeMove(ctx context.Context, req request, conn models.Conn) map[string]interface{} {
	switch {
	case req.Board == nil:
		return missingField("board")
	case req.Square == nil:
		return missingField("square")
	case req.UserID == nil:
		return missingField("userID")
	case req.Code == nil:
		return missingField("code")
	}
	// 不明な位置名は "any" として扱う（着手できない）
	local, err := models.ParsePosition(*req.Board)
	if err != nil {
		local = models.Any
	}
	square, err := models.ParsePosition(*req.Square)
	if err != nil {
		square = models.Any
	}

	res := d.manager.MakeMove(ctx, *req.Code, local, square, *req.UserID, conn)
	return map[string]interface{}{
		"error":     false,
		"status":    res.Status,
		"board":     res.Board,
		"winStatus": res.WinStatus,
		"code":      res.Code,
		"gameEnd":   res.GameEnd,
	}
}

// checkStatus、subscribe、spectateRandomMatch の処理。購読者と観戦者は以後の更新を受け取るよう登録する
func (d *Dispatcher) status(ctx context.Context, action string, req request, conn models.Conn) map[string]interface{} {
	var code string
	switch action {
	case ActionSpectateRandomMatch:
		picked, ok, err := d.manager.FetchOngoingMatch(ctx)
		if err != nil {
			return d.internalError(action, err)
		}
		if !ok {
			return notFound()
		}
		code = picked
	default:
		if req.Code == nil {
			return missingField("code")
		}
		code = *req.Code
	}
	if action == ActionSubscribe && req.UserID == nil {
		return missingField("userID")
	}

	userID := ""
	if req.UserID != nil {
		userID = *req.UserID
	}
	res, err := d.manager.CheckStatus(ctx, code, userID)
	if err != nil {
		return d.internalError(action, err)
	}
	if !res.Found {
		return notFound()
	}
	switch action {
	case ActionSubscribe:
		d.manager.Registry().Append(code, conn, userID)
	case ActionSpectateRandomMatch:
		d.manager.Registry().Append(code, conn, "")
	}
	return statusResponse(res)
}

func (d *Dispatcher) stopMatchmake(ctx context.Context, req request, conn models.Conn) map[string]interface{} {
	if req.Code == nil {
		return missingField("code")
	}
	if req.UserID == nil {
		return missingField("userID")
	}
	if err := d.manager.StopMatchmake(ctx, *req.Code, *req.UserID, conn); err != nil {
		return d.internalError("stopMatchmake", err)
	}
	return map[string]interface{}{"error": false}
}

func (d *Dispatcher) internalError(action string, err error) map[string]interface{} {
	d.logger.Error("Action failed", zap.String("action", action), zap.Error(err))
	return errorResponse("Internal server error")
}

func statusResponse(res actions.StatusResult) map[string]interface{} {
	return map[string]interface{}{
		"error":     false,
		"found":     true,
		"code":      res.Code,
		"board":     res.Board,
		"started":   res.Started,
		"players":   res.Players,
		"gameStart": res.GameStart,
		"gameEnd":   res.GameEnd,
		"winStatus": res.WinStatus,
	}
}

func notFound() map[string]interface{} {
	return map[string]interface{}{"error": false, "found": false}
}

func missingField(field string) map[string]interface{} {
	return errorResponse("No " + field + " was provided")
}

func errorResponse(message string) map[string]interface{} {
	return map[string]interface{}{"error": true, "message": message, "msgID": unknownMsgID}
}
