package liuren

// AlgorithmID is the registry identifier of the default algorithm.
const AlgorithmID = "xlr-liuren"

// Element is one of the five phases (五行).
type Element string

const (
	Wood  Element = "木"
	Fire  Element = "火"
	Earth Element = "土"
	Metal Element = "金"
	Water Element = "水"
)

// generates maps each element to the one it produces (相生).
var generates = map[Element]Element{
	Wood:  Fire,
	Fire:  Earth,
	Earth: Metal,
	Metal: Water,
	Water: Wood,
}

// conquers maps each element to the one it overcomes (相克).
var conquers = map[Element]Element{
	Wood:  Earth,
	Earth: Water,
	Water: Fire,
	Fire:  Metal,
	Metal: Wood,
}

// Generates reports whether a produces b in the generation cycle.
func Generates(a, b Element) bool { return generates[a] == b }

// Conquers reports whether a overcomes b in the conquest cycle.
func Conquers(a, b Element) bool { return conquers[a] == b }

// Palace is one of the six named positions of a reading.
type Palace struct {
	Name      string  `json:"name"`
	Position  int     `json:"position"` // 1..6, 大安..空亡
	Element   Element `json:"element"`
	Nature    string  `json:"nature"`
	Meaning   string  `json:"meaning"`
	Direction string  `json:"direction"`
	Advice    string  `json:"advice"`
}

// Palaces in fixed position order.
var Palaces = [6]Palace{
	{Name: "大安", Position: 1, Element: Wood, Nature: "上吉", Meaning: "主安定吉祥，宜静待时机，凡事以稳为先。", Direction: "东方", Advice: "万事大吉，可放心进行，稳定发展"},
	{Name: "留连", Position: 2, Element: Fire, Nature: "凶中带吉", Meaning: "主反复迟缓，进展受阻，多留意纠缠之事。", Direction: "南方", Advice: "需耐心等待，不宜急躁，曲折中有希望"},
	{Name: "速喜", Position: 3, Element: Fire, Nature: "上吉", Meaning: "主事情顺遂，利于快速推进，宜把握机会。", Direction: "南方", Advice: "好消息即将到来，顺利成功，喜事临门"},
	{Name: "赤口", Position: 4, Element: Metal, Nature: "大凶", Meaning: "主口舌是非，宜避免争执冲突，谨言慎行。", Direction: "西方", Advice: "慎言慎行，避免冲突，防止口舌之争"},
	{Name: "小吉", Position: 5, Element: Water, Nature: "吉中带凶", Meaning: "主小有收获，宜循序渐进，积小成多。", Direction: "北方", Advice: "小有所成，不可贪大求全，稳中求进"},
	{Name: "空亡", Position: 6, Element: Earth, Nature: "大凶", Meaning: "主虚耗延迟，宜审慎评估，避免盲目投入。", Direction: "中央", Advice: "难有结果，虚耗精力，应及时调整或放弃"},
}

// PalaceByIndex maps the reduced taiji index (0..5) to a palace.
// A zero remainder wraps to the sixth palace, matching the classical
// count where landing on "zero" means the count completed a full lap.
func PalaceByIndex(index int) Palace {
	if index == 0 {
		return Palaces[5]
	}
	return Palaces[index-1]
}

// favorablePalaces are the positions conventionally read as auspicious.
var favorablePalaces = map[string]bool{
	"大安": true,
	"速喜": true,
	"小吉": true,
}

// IsFavorable reports whether a palace name is conventionally auspicious.
func IsFavorable(palaceName string) bool { return favorablePalaces[palaceName] }

// Branch is one of the twelve cyclic time labels (地支).
type Branch struct {
	Name    string  `json:"name"`
	Order   int     `json:"order"` // 1..12, 子..亥
	Element Element `json:"element"`
	Yang    bool    `json:"yang"`
	Meaning string  `json:"meaning"`
}

// Branches in fixed cyclic order. Odd orders are yang, even orders yin.
var Branches = [12]Branch{
	{Name: "子", Order: 1, Element: Water, Yang: true, Meaning: "代表机密、聪明、流动性强，亦主狡猾、感情泛滥。"},
	{Name: "丑", Order: 2, Element: Earth, Yang: false, Meaning: "代表金融、务实，亦主倔强、抱怨。"},
	{Name: "寅", Order: 3, Element: Wood, Yang: true, Meaning: "代表官贵、清高、文化、智慧。"},
	{Name: "卯", Order: 4, Element: Wood, Yang: false, Meaning: "代表交通、买卖、信息，主忠诚与灵活。"},
	{Name: "辰", Order: 5, Element: Earth, Yang: true, Meaning: "代表医巫卜相、倔强、宗教人士。"},
	{Name: "巳", Order: 6, Element: Fire, Yang: false, Meaning: "代表文书、消息、精明、多疑。"},
	{Name: "午", Order: 7, Element: Fire, Yang: true, Meaning: "代表荣誉、文艺、敏捷、冲动。"},
	{Name: "未", Order: 8, Element: Earth, Yang: false, Meaning: "代表皮肤、口食、辩论能力。"},
	{Name: "申", Order: 9, Element: Metal, Yang: true, Meaning: "代表武术、军人、执法。"},
	{Name: "酉", Order: 10, Element: Metal, Yang: false, Meaning: "代表化妆品、美容、首饰。"},
	{Name: "戌", Order: 11, Element: Earth, Yang: true, Meaning: "代表黑社会、信仰、诈骗。"},
	{Name: "亥", Order: 12, Element: Water, Yang: false, Meaning: "代表憨直、助人为乐，亦主暗昧之地。"},
}

// BranchForHour locates the two-hour bucket for an hour of day.
// 子 covers 23:00-01:00, 丑 01:00-03:00 and so on around the cycle.
func BranchForHour(hour int) Branch {
	return Branches[((hour+1)/2)%12]
}

// Beast is one of the six symbolic roles (六兽).
type Beast struct {
	Name    string    `json:"name"`
	Order   int       `json:"order"` // 1..6, fixed relative order
	Element Element   `json:"element"`
	Anchors [2]string `json:"anchors"` // starting branches owned by this beast
	Traits  string    `json:"traits"`
	Meaning string    `json:"meaning"`
}

// Beasts in fixed relative order. Every branch is owned by exactly one
// beast through the anchor pairs.
var Beasts = [6]Beast{
	{Name: "青龙", Order: 1, Element: Wood, Anchors: [2]string{"寅", "卯"}, Traits: "高雅、威严、正直、主动", Meaning: "象征高贵、权威、贵人相助、文书喜讯"},
	{Name: "朱雀", Order: 2, Element: Fire, Anchors: [2]string{"巳", "午"}, Traits: "活跃、多言、敏感、聪明", Meaning: "象征言语、文字、交流、灵活多变"},
	{Name: "勾陈", Order: 3, Element: Earth, Anchors: [2]string{"辰", "戌"}, Traits: "稳重、忧郁、保守、压抑", Meaning: "象征阻滞、疾病、忧愁、压力"},
	{Name: "腾蛇", Order: 4, Element: Fire, Anchors: [2]string{"丑", "未"}, Traits: "多变、敏感、灵活、阴险", Meaning: "象征变化、惊吓、不安、转折"},
	{Name: "白虎", Order: 5, Element: Metal, Anchors: [2]string{"申", "酉"}, Traits: "刚猛、直接、凶狠、冲动", Meaning: "象征威猛、凶险、伤害、突发状况"},
	{Name: "玄武", Order: 6, Element: Water, Anchors: [2]string{"子", "亥"}, Traits: "隐忍、谨慎、机智、自保", Meaning: "象征隐秘、盗窃、背叛、潜伏"},
}

// beastOwning returns the index in Beasts of the beast anchored by the
// given branch name.
func beastOwning(branchName string) int {
	for i, b := range Beasts {
		if b.Anchors[0] == branchName || b.Anchors[1] == branchName {
			return i
		}
	}
	return 0
}

// Relative is one of the five relational labels (六亲).
type Relative string

const (
	RelativeSibling    Relative = "兄弟"
	RelativeDescendant Relative = "子孙"
	RelativeParent     Relative = "父母"
	RelativeWealth     Relative = "妻财"
	RelativeOfficial   Relative = "官鬼"
)

// AllRelatives in conventional listing order.
var AllRelatives = [5]Relative{RelativeParent, RelativeSibling, RelativeOfficial, RelativeWealth, RelativeDescendant}

// RelativeMeanings gives the knowledge-table description for each label.
var RelativeMeanings = map[Relative]string{
	RelativeParent:     "代表长辈、保护、房产、学问",
	RelativeSibling:    "代表竞争、同辈、朋友、合作伙伴",
	RelativeOfficial:   "代表外部权威、管理者、事业、压力",
	RelativeWealth:     "代表财运、钱财、情感",
	RelativeDescendant: "代表喜庆、子女、学业、休闲",
}

// RelativeFor classifies a palace element against the base element.
// The five cases are exhaustive over any two of the five elements.
func RelativeFor(base, palace Element) Relative {
	switch {
	case base == palace:
		return RelativeSibling
	case Generates(base, palace):
		return RelativeDescendant
	case Generates(palace, base):
		return RelativeParent
	case Conquers(base, palace):
		return RelativeWealth
	default:
		return RelativeOfficial
	}
}

// Question type identifiers accepted at the request boundary, with
// their reading-focus labels.
var questionTypeLabels = map[string]string{
	"career":    "事业",
	"wealth":    "财运",
	"love":      "感情",
	"health":    "健康",
	"study":     "学业",
	"travel":    "出行",
	"lawsuit":   "官司",
	"lost_item": "寻物",
	"general":   "通用",
}

// QuestionTypes lists the accepted question_type values.
func QuestionTypes() []string {
	out := make([]string, 0, len(questionTypeLabels))
	for k := range questionTypeLabels {
		out = append(out, k)
	}
	return out
}

// IsQuestionType reports whether t is an accepted question_type value.
func IsQuestionType(t string) bool {
	_, ok := questionTypeLabels[t]
	return ok
}

// QuestionTypeLabel returns the Chinese focus label for a question type,
// falling back to 通用.
func QuestionTypeLabel(t string) string {
	if label, ok := questionTypeLabels[t]; ok {
		return label
	}
	return "通用"
}

// PriorRelatives returns the conventional focus relatives for a question
// type. Love readings differ by gender. A nil result means no prior and
// the taiji-palace relative is used directly.
func PriorRelatives(questionType, gender string) []Relative {
	switch questionType {
	case "career", "lawsuit":
		return []Relative{RelativeOfficial, RelativeParent}
	case "wealth":
		return []Relative{RelativeWealth, RelativeOfficial}
	case "love":
		if gender == "female" {
			return []Relative{RelativeOfficial, RelativeDescendant}
		}
		return []Relative{RelativeWealth, RelativeDescendant}
	case "health":
		return []Relative{RelativeParent, RelativeDescendant}
	case "study":
		return []Relative{RelativeParent, RelativeOfficial}
	case "travel":
		return []Relative{RelativeParent, RelativeDescendant}
	case "lost_item":
		return []Relative{RelativeWealth, RelativeParent}
	default:
		return nil
	}
}
