package models

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeResultPrices(t *testing.T) {
	result := ScrapeResult{
		Results: []CompetitorResult{
			{SourceID: "domod", Found: true, Price: 1299},
			{SourceID: "ekupi", Found: false},
			{SourceID: "technoshop", Found: true, Price: 1249},
			{SourceID: "tehnomag", Found: false},
		},
	}

	assert.Equal(t, []float64{1299, 0, 1249, 0}, result.Prices())
	assert.Equal(t, 2, result.FoundCount())
}

func TestScrapeResultPricesAllFailed(t *testing.T) {
	result := ScrapeResult{
		Results: []CompetitorResult{
			{SourceID: "domod"}, {SourceID: "ekupi"},
		},
	}

	// A fully failed scrape still yields a slice of the expected length
	assert.Equal(t, []float64{0, 0}, result.Prices())
	assert.Equal(t, 0, result.FoundCount())
}

func TestProductMarshalJSONFlattensLink(t *testing.T) {
	withLink := Product{Name: "tv", Link: sql.NullString{String: "https://domod.ba/p/1", Valid: true}}
	data, err := json.Marshal(&withLink)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "https://domod.ba/p/1", decoded["link"])

	withoutLink := Product{Name: "tv"}
	data, err = json.Marshal(&withoutLink)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "", decoded["link"])
}

func TestProductHasCompetitorData(t *testing.T) {
	assert.False(t, (&Product{CompetitorPrices: []float64{0, 0}}).HasCompetitorData())
	assert.False(t, (&Product{}).HasCompetitorData())
	assert.True(t, (&Product{CompetitorPrices: []float64{0, 99.9}}).HasCompetitorData())
}

func TestScrapeTaskLifecycle(t *testing.T) {
	task := NewScrapeTask(3)
	assert.Equal(t, TaskStatusQueued, task.Status)
	assert.True(t, task.IsActive())
	assert.False(t, task.IsCompleted())

	task.Start()
	assert.Equal(t, TaskStatusProcessing, task.Status)
	assert.True(t, task.IsActive())

	task.Complete(&ScrapeResult{Status: ScrapeSuccess})
	assert.Equal(t, TaskStatusCompleted, task.Status)
	assert.False(t, task.IsActive())
	assert.True(t, task.IsCompleted())

	failed := NewScrapeTask(4)
	failed.Start()
	failed.Fail("boom")
	assert.Equal(t, TaskStatusFailed, failed.Status)
	assert.Equal(t, "boom", failed.Error)
	assert.True(t, failed.IsCompleted())
}
