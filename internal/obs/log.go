package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the process-wide JSON line logger. Output goes to stderr so
// stdout stays free for tooling; no prefix or flags, every line is a complete
// JSON document.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stderr, "", 0)
	})
	return logger
}

// LogRequest emits one structured line. Entries that fail to marshal are
// dropped with a marker line rather than breaking the log stream's framing.
func LogRequest(entry map[string]any) {
	data, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"level":"error","msg":"log_entry_dropped","service":"indhive-api"}`)
		return
	}
	Logger().Println(string(data))
}
