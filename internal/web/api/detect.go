package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gowvp/argus/internal/conf"
	"github.com/gowvp/argus/internal/core/alert"
	"github.com/gowvp/argus/internal/core/detect"
	"github.com/gowvp/argus/internal/rpc"
	"github.com/gowvp/argus/pkg/analyzer"
	"github.com/ixugo/goddd/pkg/conc"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// DetectAPI 检测流聚合接口
// 持有从事件流消费到卡片聚合的整条流水线，并向浏览器转发更新
type DetectAPI struct {
	log  *slog.Logger
	conf *conf.Bootstrap

	engine     *analyzer.Engine
	consumer   *detect.Consumer
	correlator *detect.Correlator
	aggregator *detect.Aggregator
	ai         *rpc.AnalyzerClient

	alertCore alert.Core
	// limiter 限制单个流的告警入库频率，检测是帧级高频事件，全量入库没有意义
	limiter func(identifier string) bool

	subscribers *conc.Map[string, chan []byte]
}

// NewDetectAPI 组装检测流水线
// 事件流消息按到达顺序串行分发，帧完成后的快照获取并发在途，
// 最终一致性由聚合器的时间戳单调检查保证
func NewDetectAPI(c *conf.Bootstrap, alertCore alert.Core) *DetectAPI {
	engine := analyzer.NewEngine().SetConfig(analyzer.Config{URL: c.Detect.Analyzer})
	api := DetectAPI{
		log:         slog.With("module", "detect"),
		conf:        c,
		engine:      &engine,
		ai:          rpc.NewAnalyzerClient(c.Detect.GrpcAddr),
		alertCore:   alertCore,
		limiter:     web.IDRateLimiter(0.2, 1, 3*time.Minute),
		subscribers: conc.NewMap[string, chan []byte](),
	}
	api.correlator = detect.NewCorrelator(api.onFrameComplete, c.Detect.PendingTTL.Duration())
	api.aggregator = detect.NewAggregator(api.engine,
		detect.WithNotifier(&api, c.Detect.EnableNotify),
		detect.WithOnUpdate(api.onCardUpdate),
	)
	api.consumer = detect.NewConsumer(api.engine, api.correlator, c.Detect.Offset, c.Detect.ReconnectDelay.Duration())
	return &api
}

// Start 启动事件流消费与待关联缓冲清理
func (a *DetectAPI) Start(ctx context.Context) {
	a.correlator.StartEvictionWorker(ctx)
	a.consumer.Start()
}

func registerDetect(r gin.IRouter, api *DetectAPI, mid ...gin.HandlerFunc) {
	group := r.Group("/detect")
	group.GET("/stream", api.streamCards)
	group.GET("/snapshot/:frame_id", api.getSnapshot)

	auth := group.Group("", mid...)
	auth.GET("/cards", web.WrapH(api.listCards))
	auth.GET("/cards/:stream_id/labels", web.WrapH(api.getStreamLabels))
	auth.GET("/status", web.WrapH(api.getStatus))
	auth.POST("/live", web.WrapH(api.setLive))
	auth.POST("/overlay", web.WrapH(api.computeOverlay))
}

// onFrameComplete 帧关联完成的回调
// 快照获取走网络，放到独立协程，避免阻塞事件流的串行分发
func (a *DetectAPI) onFrameComplete(f detect.Frame, fd *detect.FrameDetections) {
	go a.aggregator.CompleteFrame(context.Background(), f, fd)
}

// onCardUpdate 卡片更新回调：告警入库 + 推送给浏览器
func (a *DetectAPI) onCardUpdate(card *detect.Card) {
	a.saveAlerts(card)
	a.publish("card", newCardView(card))
}

// NotifyNewStream implements [detect.Notifier].
func (a *DetectAPI) NotifyNewStream(ctx context.Context, streamID string) {
	a.log.InfoContext(ctx, "发现新视频流", "stream_id", streamID)
	a.publish("new_stream", gin.H{"stream_id": streamID})
}

// saveAlerts 按 label 分别入库，同一帧的多条告警共用一张快照
func (a *DetectAPI) saveAlerts(card *detect.Card) {
	if !a.limiter(card.StreamID) {
		return
	}
	ctx := context.Background()

	var imagePath string
	if len(card.Frame.Image) > 0 {
		path, err := saveAlertSnapshot(card.StreamID, card.MessageAt, card.Frame.Image)
		if err != nil {
			a.log.ErrorContext(ctx, "save snapshot failed", "err", err)
		}
		imagePath = path
	}

	for _, det := range card.Frame.Detections {
		zonesJSON, _ := json.Marshal(det.BBox)
		in := alert.AddAlertInput{
			StreamID:   card.StreamID,
			FrameID:    card.Frame.Frame.ID,
			Label:      det.Label,
			Score:      detect.NormalizeConfidence(det.Confidence),
			ClassID:    det.ClassID,
			Zones:      string(zonesJSON),
			ImagePath:  imagePath,
			HappenedAt: orm.Time{Time: card.MessageAt},
		}
		if _, err := a.alertCore.AddAlert(ctx, &in); err != nil {
			a.log.ErrorContext(ctx, "save alert failed", "label", det.Label, "err", err)
		}
	}
}

// publish 向所有 SSE 订阅者广播，消费慢的订阅者丢弃本条
func (a *DetectAPI) publish(event string, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		return
	}
	msg := fmt.Appendf(nil, "event: %s\ndata: %s\n\n", event, body)
	a.subscribers.Range(func(_ string, ch chan []byte) bool {
		select {
		case ch <- msg:
		default:
		}
		return true
	})
}

// streamCards 浏览器订阅卡片更新（SSE）
// 连接建立时先全量下发当前卡片，之后增量推送
func (a *DetectAPI) streamCards(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "不支持 SSE"})
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	id := uuid.NewString()
	ch := make(chan []byte, 16)
	a.subscribers.Store(id, ch)
	defer a.subscribers.Delete(id)

	for _, card := range a.aggregator.ListCards() {
		body, err := json.Marshal(newCardView(card))
		if err != nil {
			continue
		}
		fmt.Fprintf(c.Writer, "event: card\ndata: %s\n\n", body)
	}
	flusher.Flush()

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			if _, err := c.Writer.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(c.Writer, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func (a *DetectAPI) listCards(_ *gin.Context, _ *struct{}) (listCardsOutput, error) {
	cards := a.aggregator.ListCards()
	items := make([]cardView, 0, len(cards))
	for _, card := range cards {
		items = append(items, newCardView(card))
	}
	return listCardsOutput{Items: items, Total: len(items)}, nil
}

func (a *DetectAPI) getStreamLabels(c *gin.Context, _ *struct{}) (streamLabelsOutput, error) {
	streamID := c.Param("stream_id")
	return streamLabelsOutput{
		StreamID: streamID,
		Items:    a.aggregator.LabelsForStream(streamID),
	}, nil
}

func (a *DetectAPI) getStatus(c *gin.Context, _ *struct{}) (detectStatusOutput, error) {
	status, lastErr := a.consumer.Status()
	pd, pf := a.correlator.PendingStats()

	out := detectStatusOutput{
		Status:            status,
		Error:             lastErr,
		Live:              a.consumer.IsLive(),
		Streams:           len(a.aggregator.ListCards()),
		PendingDetections: pd,
		PendingFrames:     pf,
	}
	if a.ai != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		ok, err := a.ai.Ping(ctx)
		out.AnalyzerServing = ok && err == nil
	}
	return out, nil
}

func (a *DetectAPI) setLive(_ *gin.Context, in *setLiveInput) (gin.H, error) {
	a.consumer.SetLive(*in.Live)
	status, _ := a.consumer.Status()
	return gin.H{"live": a.consumer.IsLive(), "status": status}, nil
}

func (a *DetectAPI) computeOverlay(_ *gin.Context, in *overlayInput) (*detect.Overlay, error) {
	card, ok := a.aggregator.GetCard(in.StreamID)
	if !ok {
		return nil, reason.ErrNotFound.SetMsg("视频流不存在")
	}
	boxes := make([][4]float64, 0, len(card.Frame.Detections))
	for _, det := range card.Frame.Detections {
		boxes = append(boxes, det.BBox)
	}
	out := detect.ComputeOverlay(in.NaturalWidth, in.NaturalHeight, in.DisplayWidth, in.DisplayHeight, boxes)
	return &out, nil
}

// getSnapshot 返回帧快照，优先取内存中的卡片，未命中时回源分析服务
func (a *DetectAPI) getSnapshot(c *gin.Context) {
	frameID := c.Param("frame_id")
	for _, card := range a.aggregator.ListCards() {
		if card.Frame.Frame.ID == frameID && len(card.Frame.Image) > 0 {
			c.Data(http.StatusOK, "image/png", card.Frame.Image)
			return
		}
	}

	data, err := a.engine.GetSnapshot(c.Request.Context(), frameID)
	if err != nil {
		web.Fail(c, reason.ErrNotFound.SetMsg(err.Error()))
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}
