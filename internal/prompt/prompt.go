// Package prompt builds the extraction prompt sent with each batch unit.
package prompt

import (
	"fmt"
	"strings"

	"github.com/eduflow/eduflow-cli/internal/model"
)

// System is the fixed system message for extraction calls.
const System = "你是知识元提取专家。必须严格输出 JSON，不要输出 Markdown 代码块或其他多余文字。"

const schema = `输出 JSON 格式（不要输出任何其他内容）：
{
  "knowledgePoints": [
    {
      "id": "本次输出内唯一的编号，如 1、2、3",
      "title": "简短标题",
      "content": "完整、自包含的知识内容",
      "type": "concept | theorem | example | exercise | other",
      "level": 0,
      "parentId": "父知识点的 id，没有则省略",
      "children": [],
      "hasAnswer": true,
      "answer": "习题答案，没有则省略",
      "questionNumber": "题号，如 1、(2)、第3题，没有则省略"
    }
  ],
  "pathChange": "进入新章节时填写章节名，否则省略",
  "fragment": "文本末尾被截断的不完整内容，原样保留；没有则省略",
  "matchedAnswers": [{"questionNumber": "题号", "answer": "答案"}],
  "regionType": "toc | content | exercises | answers | appendix"
}`

var archetypeRules = map[model.Archetype]string{
	model.ArchetypeExercises: `这是习题类文档。提取规则：
- 每道题作为一个 type 为 exercise 的知识点，保留完整题干和题号（questionNumber）。
- 题目自带解答时填入 answer 并置 hasAnswer 为 true；没有解答时置 hasAnswer 为 false。
- 遇到独立的答案区（如"参考答案"）时，把题号和答案填入 matchedAnswers，不要生成新的知识点。`,
	model.ArchetypeTextbook: `这是教材类文档。提取规则：
- 按定义、定理、性质、例题的粒度拆分，每条是一个自包含的知识点。
- 用 pathChange 记录进入的新章节，用 parentId/children 表达从属关系。
- 例题作为 type 为 example 的知识点挂在对应概念之下。`,
	model.ArchetypePaper: `这是论文类文档。提取规则：
- 按论点、方法、结论的粒度提取，每条是一个自包含的知识点。
- 摘要、参考文献等区域用 regionType 标注，不必逐条提取参考文献。`,
	model.ArchetypeGeneral: `提取规则：
- 把材料拆成自包含的知识点，每条能独立阅读理解。
- 保持原文的事实与表述，不要添加外部知识。`,
}

// Build assembles the user prompt for one extraction call.
func Build(targetCount int, archetype model.Archetype, ctx model.LearningContext) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "从下面的文本中提取知识元，目标数量约 %d 条（以内容实际密度为准，宁缺毋滥）。\n\n", targetCount)

	rules, ok := archetypeRules[archetype]
	if !ok {
		rules = archetypeRules[model.ArchetypeGeneral]
	}
	sb.WriteString(rules)
	sb.WriteString("\n\n")
	sb.WriteString(schema)

	if block := contextBlock(ctx); block != "" {
		sb.WriteString("\n\n")
		sb.WriteString(block)
	}

	return sb.String()
}

// contextBlock renders the cross-batch context so the model keeps chapter
// placement and pending work coherent across calls.
func contextBlock(ctx model.LearningContext) string {
	var parts []string

	if len(ctx.CurrentPath) > 0 {
		parts = append(parts, "当前章节路径："+strings.Join(ctx.CurrentPath, " > "))
	}

	if len(ctx.RecentKnowledge) > 0 {
		recent := ctx.RecentKnowledge
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		titles := make([]string, len(recent))
		for i, kp := range recent {
			titles[i] = kp.Title
		}
		parts = append(parts, "最近提取的知识点："+strings.Join(titles, "；"))
	}

	if ctx.Pending.Fragment != "" {
		parts = append(parts,
			"上一段末尾有未完成的内容，请与本段开头拼接后一起处理：\n"+ctx.Pending.Fragment)
	}

	if len(ctx.Pending.ExercisesAwaitingAnswer) > 0 {
		nums := make([]string, 0, len(ctx.Pending.ExercisesAwaitingAnswer))
		for _, ex := range ctx.Pending.ExercisesAwaitingAnswer {
			if ex.QuestionNumber != "" {
				nums = append(nums, ex.QuestionNumber)
			}
		}
		if len(nums) > 0 {
			parts = append(parts,
				"以下题号的习题还没有答案，遇到对应答案时填入 matchedAnswers："+strings.Join(nums, "、"))
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return "[上下文]\n" + strings.Join(parts, "\n")
}
