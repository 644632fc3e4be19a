package simhash

import (
	"math/bits"
	"strings"
	"unicode"

	"github.com/go-dedup/simhash"
	"golang.org/x/text/unicode/norm"
)

// NearDuplicateThreshold 汉明距离 <= 该值视为同一段练习的重复提交
const NearDuplicateThreshold = 6

// TranscriptFeatureSet 实现 simhash.FeatureSet 接口，用于转写文本的特征提取
type TranscriptFeatureSet struct {
	text string
}

// tokenize NFKC 规范化后按非字母数字切分并转小写
func tokenize(text string) []string {
	text = norm.NFKC.String(text)
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// GetFeatures 提取文本特征
// 使用词级 unigram + bigram，口语转写中词序变化比拼写变化更有区分度
func (t TranscriptFeatureSet) GetFeatures() []simhash.Feature {
	words := tokenize(t.text)
	if len(words) == 0 {
		return []simhash.Feature{}
	}

	features := make([]simhash.Feature, 0, 2*len(words))
	for i, w := range words {
		features = append(features, simhash.NewFeature([]byte(w)))
		if i+1 < len(words) {
			features = append(features, simhash.NewFeature([]byte(w+" "+words[i+1])))
		}
	}
	return features
}

// CalculateSimHash 计算文本的 SimHash 指纹
func CalculateSimHash(text string) uint64 {
	sh := simhash.NewSimhash()
	return sh.GetSimhash(TranscriptFeatureSet{text: text})
}

// HammingDistance 计算两个 SimHash 指纹的汉明距离（0-64）
func HammingDistance(hash1, hash2 uint64) int {
	return bits.OnesCount64(hash1 ^ hash2)
}

// Nearest 在候选指纹中查找与 hash 距离最近且不超过阈值的下标
// 未找到时返回 -1
func Nearest(hash uint64, candidates []uint64) (index, distance int) {
	index, distance = -1, 65
	for i, c := range candidates {
		if d := HammingDistance(hash, c); d <= NearDuplicateThreshold && d < distance {
			index, distance = i, d
		}
	}
	if index < 0 {
		distance = 0
	}
	return index, distance
}
