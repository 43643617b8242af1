package detect

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ixugo/goddd/pkg/conc"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SnapshotFetcher 按帧 ID 获取快照图片
type SnapshotFetcher interface {
	GetSnapshot(ctx context.Context, frameID string) ([]byte, error)
}

// Notifier 新视频流上线通知
type Notifier interface {
	NotifyNewStream(ctx context.Context, streamID string)
}

// Aggregator 流视图聚合器
//
// 每个 stream_id 只保留最新完成的一帧。卡片写入按帧事件时间戳单调递增，
// 快照获取可以并发在途，最终状态由时间戳决定而非完成顺序。
type Aggregator struct {
	m     sync.RWMutex
	cards map[string]*Card

	// seen 会话期内出现过的 stream_id，生命周期与聚合器一致，
	// 与可变的卡片表分开维护，保证通知每个流只发一次
	seen *conc.Map[string, struct{}]

	fetcher  SnapshotFetcher
	notifier Notifier
	notify   bool
	onUpdate func(*Card)
	collator *collate.Collator
	log      *slog.Logger
}

type AggregatorOption func(*Aggregator)

// WithNotifier 注入新流通知器
func WithNotifier(n Notifier, enabled bool) AggregatorOption {
	return func(a *Aggregator) {
		a.notifier = n
		a.notify = enabled
	}
}

// WithOnUpdate 注册卡片更新回调，用于入库与向浏览器转发
func WithOnUpdate(fn func(*Card)) AggregatorOption {
	return func(a *Aggregator) {
		a.onUpdate = fn
	}
}

// NewAggregator 创建聚合器
func NewAggregator(fetcher SnapshotFetcher, opts ...AggregatorOption) *Aggregator {
	a := Aggregator{
		cards:    make(map[string]*Card),
		seen:     conc.NewMap[string, struct{}](),
		fetcher:  fetcher,
		collator: collate.New(language.Und, collate.IgnoreCase),
		log:      slog.With("module", "aggregator"),
	}
	for _, opt := range opts {
		opt(&a)
	}
	return &a
}

// CompleteFrame 把关联完成的帧落到卡片
//
// 先异步获取快照（失败仅降级，不阻塞检测数据展示），再做单调性写入：
// 已有卡片的时间戳不早于新帧时，本次更新被静默丢弃。
func (a *Aggregator) CompleteFrame(ctx context.Context, f Frame, fd *FrameDetections) {
	var image []byte
	if a.fetcher != nil {
		data, err := a.fetcher.GetSnapshot(ctx, f.ID)
		if err != nil {
			a.log.WarnContext(ctx, "获取快照失败，帧继续无图展示", "frame_id", f.ID, "err", err)
		} else {
			image = data
		}
	}

	card := Card{
		StreamID: f.StreamID,
		Frame: CompletedFrame{
			Frame:      f,
			Detections: fd.Items,
			Labels:     fd.Labels,
			Image:      image,
		},
		MessageAt: f.Timestamp,
		UpdatedAt: time.Now(),
	}

	if _, loaded := a.seen.LoadOrStore(f.StreamID, struct{}{}); !loaded {
		if a.notify && a.notifier != nil {
			a.notifier.NotifyNewStream(ctx, f.StreamID)
		}
	}

	if !a.apply(&card) {
		return
	}
	if a.onUpdate != nil {
		a.onUpdate(&card)
	}
}

// apply 单调性检查下的卡片替换，过期更新返回 false
func (a *Aggregator) apply(card *Card) bool {
	a.m.Lock()
	defer a.m.Unlock()
	if old, ok := a.cards[card.StreamID]; ok && !old.MessageAt.Before(card.MessageAt) {
		return false
	}
	a.cards[card.StreamID] = card
	return true
}

// GetCard 查询单个流的卡片
func (a *Aggregator) GetCard(streamID string) (*Card, bool) {
	a.m.RLock()
	defer a.m.RUnlock()
	card, ok := a.cards[streamID]
	return card, ok
}

// ListCards 返回全部卡片，按 stream_id 不区分大小写的字典序排序
func (a *Aggregator) ListCards() []*Card {
	a.m.RLock()
	items := make([]*Card, 0, len(a.cards))
	for _, card := range a.cards {
		items = append(items, card)
	}
	a.m.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		return a.collator.CompareString(items[i].StreamID, items[j].StreamID) < 0
	})
	return items
}

// LabelsForStream 返回指定流当前卡片的标签列表，按置信度降序
// 流不存在时返回空列表
func (a *Aggregator) LabelsForStream(streamID string) []LabelScore {
	a.m.RLock()
	card, ok := a.cards[streamID]
	a.m.RUnlock()
	if !ok {
		return []LabelScore{}
	}

	items := make([]LabelScore, 0, len(card.Frame.Labels))
	for label, score := range card.Frame.Labels {
		items = append(items, LabelScore{Label: label, Score: score})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Label < items[j].Label
	})
	return items
}
