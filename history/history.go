// Package history 维护历次生成的追加式日志：
// 一个带表头的 CSV 文件，只增不改不删，每次读取整表加载。
package history

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"babata_assistant/generator"
)

// SummaryRunes 是摘要截断长度（按字符数，不是字节）。
const SummaryRunes = 30

// ellipsis 是截断后缀，摘要总长不超过 SummaryRunes+3。
const ellipsis = "..."

var header = []string{"timestamp", "mode", "topic", "summary"}

// Record 是日志中的一行，写入后不再变动。
type Record struct {
	Timestamp string `json:"timestamp"`
	Mode      string `json:"mode"`
	Topic     string `json:"topic"`
	Summary   string `json:"summary"`
}

// StorageError 包装历史文件的写入失败。读失败不会走到这里，
// 读取统一降级成空历史。
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "history storage: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store 管理单个 CSV 日志文件。路径由调用方注入，
// 不依赖任何全局状态。
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Summarize 生成摘要：清洗 Markdown 字符后取前 30 个字符，
// 统一补省略号，长短文本同一规则。
func Summarize(fullText string) string {
	clean := generator.Sanitize(fullText)
	runes := []rune(clean)
	if len(runes) > SummaryRunes {
		runes = runes[:SummaryRunes]
	}
	return string(runes) + ellipsis
}

// Append 追加一条记录。文件不存在时先建表头。
// 写入失败以 StorageError 返回，由调用方决定是否致命。
func (s *Store) Append(mode, topic, fullText string) (Record, error) {
	rec := Record{
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		Mode:      mode,
		Topic:     topic,
		Summary:   Summarize(fullText),
	}

	_, statErr := os.Stat(s.path)
	needHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Record{}, &StorageError{Err: fmt.Errorf("opening %s: %w", s.path, err)}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(header); err != nil {
			return Record{}, &StorageError{Err: err}
		}
	}
	if err := w.Write([]string{rec.Timestamp, rec.Mode, rec.Topic, rec.Summary}); err != nil {
		return Record{}, &StorageError{Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Record{}, &StorageError{Err: err}
	}
	return rec, nil
}

// LoadAll 按文件顺序（最旧在前）返回全部记录。
// 文件缺失或不可读时降级为空历史，绝不返回错误——
// 历史读不出来不应该拖垮整条流水线。倒序展示由调用方处理。
func (s *Store) LoadAll() []Record {
	f, err := os.Open(s.path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	rows, err := r.ReadAll()
	if err != nil || len(rows) == 0 {
		return nil
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, Record{
			Timestamp: row[0],
			Mode:      row[1],
			Topic:     row[2],
			Summary:   row[3],
		})
	}
	return records
}
