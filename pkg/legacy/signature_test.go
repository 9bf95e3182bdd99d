package legacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoutingLog(t *testing.T) {
	t.Run("structured flow", func(t *testing.T) {
		trainee, account, teacher := ParseRoutingLog(
			"住院醫師/張玄穎(DOC5921) → 主治醫師/王大華(DOC1234)")
		assert.Equal(t, "張玄穎", trainee)
		assert.Equal(t, "DOC5921", account)
		assert.Equal(t, "王大華", teacher)
	})

	t.Run("whitespace around arrow", func(t *testing.T) {
		trainee, account, teacher := ParseRoutingLog(
			"R/李小美(DOC7788)  →  VS/陳醫師(DOC0001)")
		assert.Equal(t, "李小美", trainee)
		assert.Equal(t, "DOC7788", account)
		assert.Equal(t, "陳醫師", teacher)
	})

	t.Run("bare name fallback", func(t *testing.T) {
		trainee, account, teacher := ParseRoutingLog("張玄穎")
		assert.Equal(t, "張玄穎", trainee)
		assert.Empty(t, account)
		assert.Empty(t, teacher)
	})

	t.Run("empty cell", func(t *testing.T) {
		trainee, account, teacher := ParseRoutingLog("")
		assert.Empty(t, trainee)
		assert.Empty(t, account)
		assert.Empty(t, teacher)
	})
}

func TestTraineeFromFolder(t *testing.T) {
	tests := []struct {
		folder string
		want   string
	}{
		{"CEPO併Emyway EPA統計分析(含統計圖)_張玄穎", "張玄穎"},
		{"export_歐陽小明", "陽小明"},
		{"batch_李美", "李美"},
		{"no-underscore", ""},
		{"trailing_", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TraineeFromFolder(tt.folder), tt.folder)
	}
}
