// Package emotion 从对话文本推断角色回复要携带的情绪标签。
// 标签随消息落库并经 response 信封下发，客户端据此选择表情与语气。
package emotion

import "strings"

// Label 回复消息携带的情绪标签。
type Label string

const (
	Neutral  Label = "neutral"
	Happy    Label = "happy"
	Sad      Label = "sad"
	Angry    Label = "angry"
	Excited  Label = "excited"
	Tender   Label = "tender"
	Comfort  Label = "comfort"
	Magnetic Label = "magnetic"
)

// Decision 推断结果。Scale 是建议的情绪强度，范围 1 到 5。
type Decision struct {
	Emotion Label
	Scale   float32
	Score   int
}

// rule 把一组关键词映射到一个标签，每个词命中计 weight 分。
type rule struct {
	label  Label
	weight int
	words  []string
}

// 词表按站内角色的说话风格整理：治愈系精灵、冒险骑士、安静学者的
// 常用表达都在各自的桶里。英文词保持小写，匹配前文本会统一转小写。
var lexicon = []rule{
	{Happy, 3, []string{
		"开心", "高兴", "快乐", "喜悦", "太好了", "太棒了", "真棒", "好耶",
		"哈哈", "喜欢", "满意", "笑", "great", "thanks", "love", "awesome",
	}},
	{Sad, 3, []string{
		"难过", "伤心", "失落", "沮丧", "悲伤", "哭", "痛苦", "孤单", "寂寞",
		"失望", "委屈", "心碎", "低落", "sad", "cry", "upset", "hurt",
	}},
	{Angry, 3, []string{
		"生气", "愤怒", "火大", "气死", "烦死", "受够了", "气愤", "抓狂",
		"怒", "angry", "furious", "mad", "annoyed",
	}},
	{Excited, 3, []string{
		"期待", "激动", "惊喜", "震撼", "振奋", "哇", "太酷了", "燃", "热血",
		"冒险", "出发", "战斗", "给力", "炸裂", "wow", "amazing", "hype",
	}},
	{Tender, 3, []string{
		"温柔", "温暖", "治愈", "轻轻", "柔和", "放松", "平静", "安心",
		"静静", "慢慢", "gentle", "soft", "calm",
	}},
	{Comfort, 3, []string{
		"别担心", "没事", "我懂", "理解", "支持", "陪着", "陪伴", "抱抱",
		"不要怕", "安慰", "放心", "慢慢来", "i'm here", "take it easy", "breathe",
	}},
	{Magnetic, 3, []string{
		"认真", "严肃", "重要", "必须", "务必", "记住", "关键", "谨慎",
		"郑重", "责任", "serious", "critical", "focus",
	}},
}

// 用户情绪到回复情绪的共情映射：用户难过时角色用安抚语气回应，
// 而不是跟着难过；用户愤怒时压成沉稳语气降温。
var empathy = map[Label]Label{
	Sad:     Comfort,
	Angry:   Magnetic,
	Happy:   Happy,
	Excited: Excited,
	Tender:  Tender,
	Comfort: Tender,
}

// Analyze 结合用户输入与回复文本推断回复应使用的情绪。
// 回复自身带明显情绪时以回复为准，否则按用户情绪做共情映射。
func Analyze(userUtterance, aiUtterance string) Decision {
	label, score := classify(aiUtterance)
	if score == 0 {
		userLabel, userScore := classify(userUtterance)
		if userScore > 0 {
			label = userLabel
			if mapped, ok := empathy[userLabel]; ok {
				label = mapped
			}
			score = userScore
		}
	}

	if score == 0 {
		return Decision{Emotion: Neutral, Scale: 3}
	}
	return Decision{Emotion: label, Scale: scaleFor(label, score), Score: score}
}

// classify 返回文本里得分最高的标签及其得分，没有命中时得分为 0。
func classify(text string) (Label, int) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Neutral, 0
	}

	scores := make(map[Label]int, len(lexicon))
	for _, r := range lexicon {
		for _, word := range r.words {
			if strings.Contains(normalized, word) {
				scores[r.label] += r.weight
			}
		}
	}

	// 感叹号抬高兴奋的权重，中英文标点都算。
	if marks := strings.Count(text, "!") + strings.Count(text, "！"); marks > 0 {
		scores[Excited] += marks * 3
		scores[Happy] += 2
	}

	best, bestScore := Neutral, 0
	for label, s := range scores {
		if s > bestScore {
			best, bestScore = label, s
		}
	}
	return best, bestScore
}

// scaleFor 把得分折算成 1 到 5 的强度，安抚类语气压低上限避免用力过猛。
func scaleFor(label Label, score int) float32 {
	scale := 2 + float32(score)/4
	switch label {
	case Excited:
		scale += 1
	case Magnetic:
		if scale > 4 {
			scale = 4
		}
	case Comfort, Tender:
		if scale > 3.5 {
			scale = 3.5
		}
	}

	if scale < 1 {
		scale = 1
	}
	if scale > 5 {
		scale = 5
	}
	return scale
}
