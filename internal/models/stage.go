package models

// Stage はパイプラインの段階
type Stage string

// パイプライン段階（実行順）
const (
	StageExtraction Stage = "extraction"
	StageAnalysis   Stage = "analysis"
	StageVoice      Stage = "voice"
	StageMarketing  Stage = "marketing"
	StageRendering  Stage = "rendering"
)

// Stages は固定の実行順
var Stages = []Stage{
	StageExtraction,
	StageAnalysis,
	StageVoice,
	StageMarketing,
	StageRendering,
}

var stageLabels = map[Stage]string{
	StageExtraction: "Content Extraction",
	StageAnalysis:   "Script Analysis",
	StageVoice:      "Voice Synthesis",
	StageMarketing:  "Marketing Content",
	StageRendering:  "Video Rendering",
}

var stageCheckpoints = map[Stage]int{
	StageExtraction: 10,
	StageAnalysis:   30,
	StageVoice:      50,
	StageMarketing:  70,
	StageRendering:  90,
}

// Label は表示用の段階名を返す
func (s Stage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// Checkpoint は段階開始時に書き込む進捗値を返す
func (s Stage) Checkpoint() int {
	return stageCheckpoints[s]
}

// Valid は既知の段階かどうか
func (s Stage) Valid() bool {
	_, ok := stageCheckpoints[s]
	return ok
}

// Next は次の段階を返す（最終段階なら空）
func (s Stage) Next() Stage {
	for i, st := range Stages {
		if st == s && i+1 < len(Stages) {
			return Stages[i+1]
		}
	}
	return ""
}
