package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/fatih/structs"
	"github.com/tebeka/atexit"
)

// clickHouseRecorder writes the records into a ClickHouse database with
// batched native inserts.
type clickHouseRecorder struct {
	conn      clickhouse.Conn
	lock      sync.Mutex
	batchSize int

	tables     map[string]*table
	entryCount int
	exec       *execRecorder
}

func newClickHouseRecorder(
	options *clickhouse.Options,
	batchSize int,
) (*clickHouseRecorder, error) {
	if batchSize == 0 {
		batchSize = 100000
	}

	options.DialTimeout = 30 * time.Second
	options.MaxOpenConns = 5
	options.MaxIdleConns = 5
	options.ConnMaxLifetime = time.Hour
	options.ConnOpenStrategy = clickhouse.ConnOpenInOrder

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	r := &clickHouseRecorder{
		conn:      conn,
		batchSize: batchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { r.Flush() })

	r.exec = newExecRecorder(r)
	r.exec.Start()

	return r, nil
}

func clickHouseType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "Bool"
	case reflect.Int8:
		return "Int8"
	case reflect.Int16:
		return "Int16"
	case reflect.Int32:
		return "Int32"
	case reflect.Int, reflect.Int64:
		return "Int64"
	case reflect.Uint8:
		return "UInt8"
	case reflect.Uint16:
		return "UInt16"
	case reflect.Uint32:
		return "UInt32"
	case reflect.Uint, reflect.Uint64:
		return "UInt64"
	case reflect.Float32:
		return "Float32"
	case reflect.Float64:
		return "Float64"
	default:
		return "String"
	}
}

func (r *clickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	err := checkStructFields(sampleEntry)
	if err != nil {
		panic(err)
	}

	t := reflect.TypeOf(sampleEntry)
	columns := make([]string, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		columns = append(columns,
			fmt.Sprintf("%s %s", f.Name, clickHouseType(f.Type.Kind())))
	}

	createSQL := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) ENGINE = MergeTree()\n"+
			"ORDER BY tuple()",
		tableName, strings.Join(columns, ",\n\t"))

	r.lock.Lock()
	defer r.lock.Unlock()

	err = r.conn.Exec(context.Background(), createSQL)
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	r.tables[tableName] = &table{structType: t}
}

func (r *clickHouseRecorder) InsertData(tableName string, entry any) {
	r.lock.Lock()

	table, exists := r.tables[tableName]
	if !exists {
		r.lock.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	table.entries = append(table.entries, entry)
	r.entryCount++
	full := r.entryCount >= r.batchSize

	r.lock.Unlock()

	if full {
		r.Flush()
	}
}

func (r *clickHouseRecorder) ListTables() []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	tables := make([]string, 0, len(r.tables))
	for name := range r.tables {
		tables = append(tables, name)
	}

	return tables
}

func (r *clickHouseRecorder) Flush() {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.entryCount == 0 {
		return
	}

	ctx := context.Background()

	for tableName, table := range r.tables {
		if len(table.entries) == 0 {
			continue
		}

		r.flushTable(ctx, tableName, table)
	}

	r.entryCount = 0
}

func (r *clickHouseRecorder) flushTable(
	ctx context.Context,
	tableName string,
	t *table,
) {
	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
	if err != nil {
		panic(fmt.Errorf("failed to prepare batch for %s: %w", tableName, err))
	}

	for _, entry := range t.entries {
		err = batch.Append(structs.Values(entry)...)
		if err != nil {
			panic(fmt.Errorf("failed to append to batch: %w", err))
		}
	}

	err = batch.Send()
	if err != nil {
		panic(fmt.Errorf("failed to send batch: %w", err))
	}

	t.entries = t.entries[:0]
}

func (r *clickHouseRecorder) Close() error {
	if r.exec != nil {
		r.exec.End()
		r.exec = nil
	}

	r.Flush()

	err := r.conn.Close()
	if err != nil {
		return fmt.Errorf("failed to close ClickHouse connection: %w", err)
	}

	return nil
}
