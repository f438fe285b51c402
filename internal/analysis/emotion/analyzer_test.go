package emotion

import "testing"

func TestAnalyzeLabels(t *testing.T) {
	cases := []struct {
		name string
		user string
		ai   string
		want Label
	}{
		{"回复自带情绪优先", "随便聊聊", "今天真开心", Happy},
		{"回复安抚词直接命中", "我今天很难过", "我会陪着你一起面对", Comfort},
		{"用户难过映射为安抚", "我好难过", "这样啊。", Comfort},
		{"用户愤怒映射为沉稳", "气死我了", "这样啊。", Magnetic},
		{"用户兴奋跟随兴奋", "太期待这次冒险了", "这样啊。", Excited},
		{"感叹号推高兴奋", "哦", "出发吧！！！", Excited},
		{"无情绪线索回退中性", "今天天气如何", "还可以。", Neutral},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := Analyze(tc.user, tc.ai)
			if decision.Emotion != tc.want {
				t.Fatalf("emotion = %s, want %s", decision.Emotion, tc.want)
			}
			if decision.Scale < 1 || decision.Scale > 5 {
				t.Fatalf("scale out of range: %f", decision.Scale)
			}
		})
	}
}

func TestAnalyzeNeutralDefaultsToMidScale(t *testing.T) {
	decision := Analyze("今天天气如何", "还可以。")
	if decision.Scale != 3 {
		t.Fatalf("neutral scale = %f, want 3", decision.Scale)
	}
	if decision.Score != 0 {
		t.Fatalf("neutral score = %d, want 0", decision.Score)
	}
}

func TestAnalyzeExcitementBoostsScale(t *testing.T) {
	decision := Analyze("太棒了!!! 我们成功了", "真是振奋的消息！")
	if decision.Emotion != Excited {
		t.Fatalf("emotion = %s, want excited", decision.Emotion)
	}
	if decision.Scale < 3 {
		t.Fatalf("expected boosted scale for excitement, got %f", decision.Scale)
	}
}

func TestAnalyzeComfortScaleCapped(t *testing.T) {
	decision := Analyze("难过 伤心 哭 痛苦 失望 委屈", "嗯。")
	if decision.Emotion != Comfort {
		t.Fatalf("emotion = %s, want comfort", decision.Emotion)
	}
	if decision.Scale > 3.5 {
		t.Fatalf("comfort scale = %f, want <= 3.5", decision.Scale)
	}
}

func TestAnalyzeScaleNeverExceedsFive(t *testing.T) {
	decision := Analyze("", "开心 快乐 喜悦 太好了 太棒了！！！！！")
	if decision.Scale > 5 {
		t.Fatalf("scale = %f, want <= 5", decision.Scale)
	}
	if decision.Scale < 1 {
		t.Fatalf("scale = %f, want >= 1", decision.Scale)
	}
}
