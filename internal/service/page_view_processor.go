package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/analytics"
	"github.com/SergeiKhy/cinema-lines/internal/metrics"
	"github.com/SergeiKhy/cinema-lines/internal/models"
	"github.com/SergeiKhy/cinema-lines/internal/repository"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	defaultWorkerCount   = 3    // Количество воркеров
	defaultChannelBuffer = 1000 // Размер буфера канала
	maxRetries           = 3    // Максимальное количество попыток записи
	unknownCountry       = "Unknown"
)

var ErrPathRequired = errors.New("path is required")

// TrackResult что произошло с событием просмотра
type TrackResult int

const (
	TrackQueued TrackResult = iota
	TrackSkipped
	TrackDropped
)

// PageViewProcessor интерфейс для асинхронного учёта просмотров
type PageViewProcessor interface {
	Start()
	Stop()
	Track(ctx context.Context, event *models.PageViewEvent) (TrackResult, error)
	Stats() ChannelStats
}

type ProcessorConfig struct {
	Workers    int
	BufferSize int
	// RetryDelay базовая задержка между попытками, растёт линейно
	RetryDelay time.Duration
}

// pageViewProcessor реализация процессора просмотров с использованием Worker Pool
type pageViewProcessor struct {
	counterRepo repository.CounterRepository
	logger      *zap.Logger
	metrics     *metrics.Metrics
	viewChannel chan *models.PageView // Канал для событий просмотров
	workerCount int                   // Количество воркеров
	retryDelay  time.Duration
	now         func() time.Time
	wg          sync.WaitGroup // WaitGroup для ожидания завершения воркеров
	ctx         context.Context
	cancel      context.CancelFunc

	// mu защищает жизненный цикл; Track держит RLock на время отправки в канал
	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewPageViewProcessor создаёт новый экземпляр процессора просмотров
func NewPageViewProcessor(
	counterRepo repository.CounterRepository,
	cfg ProcessorConfig,
	logger *zap.Logger,
	m *metrics.Metrics,
) PageViewProcessor {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkerCount
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultChannelBuffer
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}

	return &pageViewProcessor{
		counterRepo: counterRepo,
		logger:      logger,
		metrics:     m,
		viewChannel: make(chan *models.PageView, cfg.BufferSize),
		workerCount: cfg.Workers,
		retryDelay:  cfg.RetryDelay,
		now:         time.Now,
	}
}

// Start запускает worker pool; повторный вызов и вызов после Stop ничего не делают
func (p *pageViewProcessor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.logger.Info("Запуск воркеров процессора просмотров", zap.Int("count", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop останавливает worker pool; события, уже стоящие в буфере, дописываются
func (p *pageViewProcessor) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	// Без Start воркеров нет, события в буфере так и останутся неучтёнными
	if !p.started {
		return
	}

	p.logger.Info("Остановка процессора просмотров...")
	p.cancel()
	p.wg.Wait()
	p.logger.Info("Процессор просмотров остановлен")
}

// worker обрабатывает события просмотров из канала
func (p *pageViewProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Воркер просмотров запущен", zap.Int("id", id))

	for {
		select {
		case <-p.ctx.Done():
			p.drain()
			p.logger.Debug("Воркер просмотров остановлен", zap.Int("id", id))
			return

		case view := <-p.viewChannel:
			p.processView(p.ctx, view)
		}
	}
}

func (p *pageViewProcessor) drain() {
	for {
		select {
		case view := <-p.viewChannel:
			p.processView(context.Background(), view)
		default:
			return
		}
	}
}

// processView записывает один просмотр с retry логикой
func (p *pageViewProcessor) processView(parent context.Context, view *models.PageView) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), 5*time.Second)
	defer cancel()

	var err error
	for i := 0; i < maxRetries; i++ {
		if err = p.counterRepo.IncrementPageView(ctx, view); err == nil {
			p.metrics.PageViewsTotal.WithLabelValues("recorded").Inc()
			return
		}
		if i < maxRetries-1 {
			p.logger.Debug("Повторная попытка записи просмотра",
				zap.String("path", view.Path),
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(time.Duration(i+1) * p.retryDelay)
		}
	}

	p.metrics.PageViewsTotal.WithLabelValues("failed").Inc()
	p.logger.Error("Не удалось записать просмотр после всех попыток",
		zap.String("path", view.Path),
		zap.Error(err),
	)
}

// Track ставит просмотр в очередь (неблокирующая операция). Служебные пути
// пропускаются, при заполненном буфере событие теряется без ошибки.
func (p *pageViewProcessor) Track(ctx context.Context, event *models.PageViewEvent) (TrackResult, error) {
	path := strings.TrimSpace(event.Path)
	if path == "" {
		return TrackSkipped, ErrPathRequired
	}

	if !analytics.IsTrackablePath(path) {
		p.metrics.PageViewsTotal.WithLabelValues("skipped").Inc()
		return TrackSkipped, nil
	}

	country := strings.ToUpper(strings.TrimSpace(event.Country))
	if country == "" {
		country = unknownCountry
	}

	view := &models.PageView{
		Path:     path,
		Country:  country,
		ViewedAt: p.now().UTC(),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.metrics.PageViewsTotal.WithLabelValues("dropped").Inc()
		return TrackDropped, nil
	}

	select {
	case <-ctx.Done():
		return TrackDropped, ctx.Err()
	case p.viewChannel <- view:
		p.metrics.PageViewsTotal.WithLabelValues("queued").Inc()
		return TrackQueued, nil
	default:
		// Канал заполнен, не блокируем запрос, просто теряем статистику
		p.metrics.PageViewsTotal.WithLabelValues("dropped").Inc()
		p.logger.Warn("Буфер канала просмотров заполнен, событие потеряно",
			zap.String("path", path),
		)
		return TrackDropped, nil
	}
}

// Stats возвращает статистику канала для мониторинга
func (p *pageViewProcessor) Stats() ChannelStats {
	return ChannelStats{
		BufferSize:  cap(p.viewChannel),
		BufferUsed:  len(p.viewChannel),
		WorkerCount: p.workerCount,
	}
}

// ChannelStats статистика канала worker pool
type ChannelStats struct {
	BufferSize  int `json:"buffer_size"`  // Общая ёмкость канала
	BufferUsed  int `json:"buffer_used"`  // Текущее использование
	WorkerCount int `json:"worker_count"` // Количество воркеров
}
