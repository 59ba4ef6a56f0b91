package output

import (
	"context"
	"fmt"
	"time"

	"github.com/tsinghua-fib-lab/fuzzylts/entity"
	"github.com/tsinghua-fib-lab/fuzzylts/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 单次InsertMany的批大小
const mongoBatchSize = 256

// mongoRecorder 把决策记录批量写入MongoDB
// 说明：记录先积攒在内存缓冲中，满一批或Close时写出；
// 写出失败只告警丢弃本批，不中断控制过程
type mongoRecorder struct {
	job    string
	client *mongo.Client
	col    *mongo.Collection
	buffer []interface{}
}

func newMongoRecorder(cfg config.MongoOutput, job string) (*mongoRecorder, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	log.Infof("writing decisions to mongodb %s.%s", cfg.DB, cfg.Col)
	return &mongoRecorder{
		job:    job,
		client: client,
		col:    client.Database(cfg.DB).Collection(cfg.Col),
		buffer: make([]interface{}, 0, mongoBatchSize),
	}, nil
}

func (r *mongoRecorder) Record(rec *entity.DecisionRecord) {
	r.buffer = append(r.buffer, bson.M{
		"job":          r.job,
		"step":         rec.Step,
		"time":         rec.Time,
		"tl":           rec.Approach.TL,
		"phase":        rec.Approach.Phase,
		"decision":     rec.Decision.Kind.String(),
		"duration":     rec.Decision.Duration,
		"queue":        rec.State.QueueLength,
		"arrival_rate": rec.State.ArrivalRate,
	})
	if len(r.buffer) >= mongoBatchSize {
		r.flush()
	}
}

func (r *mongoRecorder) flush() {
	if len(r.buffer) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := r.col.InsertMany(ctx, r.buffer); err != nil {
		log.Errorf("insert %d decision records: %v", len(r.buffer), err)
	}
	r.buffer = r.buffer[:0]
}

func (r *mongoRecorder) Close() error {
	r.flush()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}
