package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	topicPlaceholder  = "{topic}"
	promptPlaceholder = "{prompt}"

	defaultSceneCount = 8
)

// Profile describes the editorial persona used to write scripts and to
// condition reference images. It can be overridden with a YAML file.
type Profile struct {
	Name                 string `yaml:"name"`
	SceneCount           int    `yaml:"scene_count"`
	SystemInstruction    string `yaml:"system_instruction"`
	UserPrompt           string `yaml:"user_prompt"`
	ReferenceInstruction string `yaml:"reference_instruction"`
}

const defaultSystemInstruction = `Bạn là "TRỢ LÝ BIÊN TẬP VIDEO TNSOLVE CHUYÊN NGHIỆP".

1. VAI TRÒ & PHONG CÁCH:
- Biên tập viên kịch bản video ngắn, phong cách: Nhanh - Ngầu (Badass) - Dồn dập (Rap flow) - Hài hước.
- Nhân vật đại diện: Một nam thanh niên mặc áo polo xanh, đeo kính, tri thức nhưng năng động (3D Animation style).
- Nhiệm vụ: Nhận chủ đề và chuyển hóa thành kịch bản 1 phút với 8 phân cảnh.

2. QUY TẮC NỘI DUNG (TUYỆT ĐỐI TUÂN THỦ):
- Độ dài: Đúng 8 câu thoại (8 phân cảnh). Khoảng 40-50 từ/câu.
- Cấu trúc câu: Câu dài, liền mạch. TUYỆT ĐỐI KHÔNG DÙNG DẤU PHẨY (,) ở giữa câu. Thay dấu phẩy bằng các từ nối (và, thì, mà, là, nên, rồi...).
- Cú pháp lệnh TTS: Mỗi câu thoại phải bắt đầu bằng: - lời thoại: "[Nội dung]"

3. ĐỊNH DẠNG ĐẦU RA JSON:
Trả về JSON với các key:
- ttsContent: (string) Chứa 8 dòng lệnh lời thoại.
- sceneDescriptions: (string) Mô tả 8 cảnh bằng tiếng Việt.
- imagePrompts: (array of strings) Chứa chính xác 8 prompts tiếng Anh, mỗi prompt bắt đầu bằng tiền tố quy định.
- facebookPost: (string) Nội dung bài đăng Facebook.

Tiền tố Image Prompt: "High quality 3D animation, Pixar style, Cinematic lighting, Expressive character: A handsome young Vietnamese man character wearing glasses and a blue polo shirt with a red badge..."`

// DefaultProfile returns the built-in TNSOLVE editor persona.
func DefaultProfile() Profile {
	return Profile{
		Name:                 "tnsolve",
		SceneCount:           defaultSceneCount,
		SystemInstruction:    defaultSystemInstruction,
		UserPrompt:           "Hãy tạo kịch bản video cho chủ đề: " + topicPlaceholder,
		ReferenceInstruction: "Based on the character/style in the provided image, generate a new image for this scene: " + promptPlaceholder + ". Maintain character consistency.",
	}
}

// LoadProfile reads a YAML profile. Missing fields keep their default values.
// An empty path returns the default profile.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()
	path = strings.TrimSpace(path)
	if path == "" {
		return profile, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("prompt: read profile: %w", err)
	}
	var override Profile
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return Profile{}, fmt.Errorf("prompt: parse profile %s: %w", path, err)
	}
	profile = profile.merge(override)
	if err := profile.Validate(); err != nil {
		return Profile{}, fmt.Errorf("prompt: profile %s: %w", path, err)
	}
	return profile, nil
}

func (p Profile) merge(o Profile) Profile {
	if s := strings.TrimSpace(o.Name); s != "" {
		p.Name = s
	}
	if o.SceneCount != 0 {
		p.SceneCount = o.SceneCount
	}
	if s := strings.TrimSpace(o.SystemInstruction); s != "" {
		p.SystemInstruction = s
	}
	if s := strings.TrimSpace(o.UserPrompt); s != "" {
		p.UserPrompt = s
	}
	if s := strings.TrimSpace(o.ReferenceInstruction); s != "" {
		p.ReferenceInstruction = s
	}
	return p
}

func (p Profile) Validate() error {
	if p.SceneCount <= 0 {
		return errors.New("scene_count must be positive")
	}
	if !strings.Contains(p.UserPrompt, topicPlaceholder) {
		return fmt.Errorf("user_prompt must contain %s", topicPlaceholder)
	}
	if !strings.Contains(p.ReferenceInstruction, promptPlaceholder) {
		return fmt.Errorf("reference_instruction must contain %s", promptPlaceholder)
	}
	return nil
}

// UserPromptFor renders the user turn for a topic.
func (p Profile) UserPromptFor(topic string) string {
	return strings.ReplaceAll(p.UserPrompt, topicPlaceholder, strings.TrimSpace(topic))
}
