package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Field helpers for the pipeline's recurring keys

func Stage(name string) Field {
	return String("stage", name)
}

func RunID(id string) Field {
	return String("run_id", id)
}

func Order(n int) Field {
	return Int("order", n)
}

func Records(n uint64) Field {
	return Uint64("records", n)
}

func Blocks(n int) Field {
	return Int("blocks", n)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}
