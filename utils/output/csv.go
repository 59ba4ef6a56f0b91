package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tsinghua-fib-lab/fuzzylts/entity"
)

// csvHeader 决策记录CSV列定义
var csvHeader = []string{"step", "time", "tl", "phase", "decision", "duration", "queue", "arrival_rate"}

// csvRecorder 把决策记录逐行写入CSV文件
// 说明：文件名为<dir>/<job>.csv，已存在则截断重写；
// 写入带缓冲，Close前最后若干行可能尚未落盘
type csvRecorder struct {
	file   *os.File
	writer *csv.Writer
}

func newCSVRecorder(dir string, job string) (*csvRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create csv output dir: %w", err)
	}
	path := filepath.Join(dir, job+".csv")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv output file: %w", err)
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	log.Infof("writing decisions to %s", path)
	return &csvRecorder{file: file, writer: writer}, nil
}

func (r *csvRecorder) Record(rec *entity.DecisionRecord) {
	row := []string{
		strconv.FormatInt(int64(rec.Step), 10),
		strconv.FormatFloat(rec.Time, 'f', 1, 64),
		rec.Approach.TL,
		strconv.Itoa(rec.Approach.Phase),
		rec.Decision.Kind.String(),
		strconv.FormatFloat(rec.Decision.Duration, 'f', 2, 64),
		strconv.FormatInt(int64(rec.State.QueueLength), 10),
		strconv.FormatFloat(rec.State.ArrivalRate, 'f', 4, 64),
	}
	if err := r.writer.Write(row); err != nil {
		log.Errorf("write csv row: %v", err)
	}
}

func (r *csvRecorder) Close() error {
	r.writer.Flush()
	if err := r.writer.Error(); err != nil {
		r.file.Close()
		return fmt.Errorf("flush csv output: %w", err)
	}
	return r.file.Close()
}
