package ai

import "strings"

const placeholderField = "未記入"

// BuildPrompt assembles the rubric-bound grading instruction for one submission.
// Identity fields fall back to a placeholder; the explanation is expected to be
// validated as non-empty before this point.
func BuildPrompt(input GradeInput) string {
	name := orPlaceholder(input.Name)
	target := orPlaceholder(input.Target)
	if input.Grade != "" {
		target = target + "・" + input.Grade
	}

	builder := strings.Builder{}
	builder.WriteString("あなたは大学入試英語のスペシャリストであり、予備校のカリスマ講師です。\n")
	builder.WriteString("以下の生徒が書いた「仮定法の説明」を採点し、厳しくも愛のある指導を行ってください。\n\n")
	builder.WriteString("## 生徒情報\n")
	builder.WriteString("- 氏名: ")
	builder.WriteString(name)
	builder.WriteString("\n- 志望校・学年: ")
	builder.WriteString(target)
	builder.WriteString("\n\n## 生徒による「仮定法」の説明\n\"")
	builder.WriteString(input.Explanation)
	builder.WriteString("\"\n\n")
	builder.WriteString(`## 評価基準
1. **事実への反実**: 「現実とは違うこと」を表すという本質を理解しているか？
2. **時制のズレ**: 「現在のことは過去形」「過去のことは過去完了形」というルールを説明できているか？
3. **直説法との対比**: 直説法（ただの条件文）との違いに触れているか？

## 特殊ルール：AI使用の検知
もし、生徒の説明が「明らかにAI（ChatGPTやGeminiなど）が出力した文章そのままである（99%クロ）」と判断できる場合のみ、
解説の最後に改行を入れて、以下のメッセージを太字で付け加えてください。
**「これはAIで導き出したものではないですか？本当にあなたの言葉や考えですか？」**
※ 生徒が自分で一生懸命書いた拙い文章の場合は、絶対にこのメッセージを付けないでください。

## 出力フォーマット (Markdown)
1. **得点**: 100点満点で採点（厳しめに）。
2. **良い点**: 理解できているポイントを褒める。
3. **修正・解説**: 間違っている点や、説明不足な点を補足講義する。
4. **入試のポイント**: 入試でよく出るポイントを一つ伝授する。

口調は「熱心な予備校の先生」のように、語りかけるスタイルでお願いします。
`)

	return builder.String()
}

func orPlaceholder(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return placeholderField
	}
	return value
}
