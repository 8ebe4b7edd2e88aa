package extract

import (
	"strconv"

	"github.com/eduflow/eduflow-cli/internal/model"
)

// RemapWorker prefixes every id with t{worker}_ so concurrent workers in one
// batch can never collide, rewriting parent and children references to match.
func RemapWorker(worker int, kps []model.KnowledgePoint) []model.KnowledgePoint {
	return remapIDs("t"+strconv.Itoa(worker)+"_", kps)
}

// RemapBatch prefixes every id with b{batch}_ so successive batches can never
// collide. Applied after RemapWorker, yielding b{batch}_t{worker}_{raw} ids
// whose origin stays recoverable.
func RemapBatch(batch int, kps []model.KnowledgePoint) []model.KnowledgePoint {
	return remapIDs("b"+strconv.Itoa(batch)+"_", kps)
}

func remapIDs(prefix string, kps []model.KnowledgePoint) []model.KnowledgePoint {
	if len(kps) == 0 {
		return kps
	}

	mapped := make(map[string]string, len(kps))
	out := make([]model.KnowledgePoint, len(kps))
	for i, kp := range kps {
		mapped[kp.ID] = prefix + kp.ID
		out[i] = kp
		out[i].ID = prefix + kp.ID
	}

	for i := range out {
		// Parent references outside the slice (already-merged points)
		// keep their ids untouched.
		if np, ok := mapped[out[i].ParentID]; ok {
			out[i].ParentID = np
		}
		if len(out[i].Children) > 0 {
			children := make([]string, len(out[i].Children))
			for j, c := range out[i].Children {
				if nc, ok := mapped[c]; ok {
					children[j] = nc
				} else {
					children[j] = c
				}
			}
			out[i].Children = children
		}
	}

	ComputeAncestorPaths(out)
	return out
}
