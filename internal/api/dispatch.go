package telegram

import (
	"context"
	"sync"
)

// dispatcher запускает обработчики обновлений параллельно, не больше limit одновременно
type dispatcher struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func newDispatcher(limit int) *dispatcher {
	if limit <= 0 {
		limit = 1
	}
	return &dispatcher{sem: make(chan struct{}, limit)}
}

// Go ждёт свободный слот и запускает fn в отдельной горутине.
// Возвращает false, если ctx отменён раньше.
func (d *dispatcher) Go(ctx context.Context, fn func()) bool {
	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return false
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() { <-d.sem }()
		fn()
	}()
	return true
}

// Wait ждёт завершения запущенных обработчиков
func (d *dispatcher) Wait() {
	d.wg.Wait()
}
