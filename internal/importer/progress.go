package importer

import (
	"time"

	"dailyledger/internal/workbook"
)

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"` // state / warning / done / error
	State     State       `json:"state,omitempty"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// IngestStream 异步导入，返回进度通道；结束时发送 done 或 error 事件，数据为 *Outcome
func (p *Pipeline) IngestStream(text string, policy workbook.DuplicatePolicy, src Source) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 16)

	go func() {
		defer close(progressChan)

		outcome, err := p.ingest(text, policy, src, func(evt ProgressEvent) {
			progressChan <- evt
		})
		if err != nil {
			progressChan <- ProgressEvent{Type: "error", Message: err.Error(), Timestamp: p.now()}
			return
		}
		evtType := "done"
		if !outcome.Succeeded() {
			evtType = "error"
		}
		progressChan <- ProgressEvent{
			Type:      evtType,
			State:     outcome.State,
			Message:   outcome.Message(),
			Data:      outcome,
			Timestamp: p.now(),
		}
	}()

	return progressChan
}
