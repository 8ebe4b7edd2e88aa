package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduflow/eduflow-cli/internal/model"
)

func TestRemapWorkerRewritesReferences(t *testing.T) {
	kps := []model.KnowledgePoint{
		{ID: "1", Children: []string{"2"}},
		{ID: "2", ParentID: "1"},
	}
	out := RemapWorker(0, kps)
	require.Len(t, out, 2)
	assert.Equal(t, "t0_1", out[0].ID)
	assert.Equal(t, []string{"t0_2"}, out[0].Children)
	assert.Equal(t, "t0_1", out[1].ParentID)
	assert.Equal(t, []string{"t0_1", "t0_2"}, out[1].AncestorPath)

	// Input slice untouched.
	assert.Equal(t, "1", kps[0].ID)
}

func TestRemapBatchAfterWorker(t *testing.T) {
	kps := []model.KnowledgePoint{{ID: "1"}, {ID: "2", ParentID: "1"}}
	out := RemapBatch(3, RemapWorker(1, kps))
	assert.Equal(t, "b3_t1_1", out[0].ID)
	assert.Equal(t, "b3_t1_2", out[1].ID)
	assert.Equal(t, "b3_t1_1", out[1].ParentID)
}

func TestRemapLeavesExternalParentAlone(t *testing.T) {
	// Parent already merged in an earlier batch keeps its id.
	kps := []model.KnowledgePoint{{ID: "1", ParentID: "b1_t0_4"}}
	out := RemapBatch(2, kps)
	assert.Equal(t, "b2_1", out[0].ID)
	assert.Equal(t, "b1_t0_4", out[0].ParentID)
}

func TestRemapUniqueAcrossWorkersAndBatches(t *testing.T) {
	seen := map[string]bool{}
	for batch := 1; batch <= 2; batch++ {
		for worker := 0; worker < 2; worker++ {
			kps := []model.KnowledgePoint{{ID: "1"}, {ID: "2"}}
			for _, kp := range RemapBatch(batch, RemapWorker(worker, kps)) {
				assert.False(t, seen[kp.ID], "duplicate id %s", kp.ID)
				seen[kp.ID] = true
			}
		}
	}
	assert.Len(t, seen, 8)
}
