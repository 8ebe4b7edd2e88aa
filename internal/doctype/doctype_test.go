package doctype

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eduflow/eduflow-cli/internal/model"
)

func TestClassifyByFileName(t *testing.T) {
	for _, name := range []string{"第三章习题.pdf", "期末考试.txt", "Final Exam 2024.pdf", "chapter3_exercises.md"} {
		assert.Equal(t, model.ArchetypeExercises, Classify("随便什么内容", name), "file %s", name)
	}
}

func TestClassifyExercises(t *testing.T) {
	sample := `
1. 求下列极限
（2）设 f(x) = x^2
解：由定义可知
答案：B
A. 连续
`
	assert.Equal(t, model.ArchetypeExercises, Classify(sample, "notes.txt"))
}

func TestClassifyTextbook(t *testing.T) {
	sample := `
第一章 函数与极限
定义 1.1：设函数 f(x) 在点 x0 的某邻域内有定义
定理 1.2：极限若存在则唯一
例 1 求函数的定义域
1.1 映射与函数
`
	assert.Equal(t, model.ArchetypeTextbook, Classify(sample, "notes.txt"))
}

func TestClassifyPaper(t *testing.T) {
	sample := `
摘要：本文研究了一类非线性方程
关键词：非线性；稳定性
引言
参考文献
[1] 张三. 某某研究.
`
	assert.Equal(t, model.ArchetypePaper, Classify(sample, "notes.txt"))
}

func TestClassifyGeneralBelowThreshold(t *testing.T) {
	assert.Equal(t, model.ArchetypeGeneral, Classify("今天天气不错，我们出去走走。", "diary.txt"))
}
