package scratch

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Backdrop asset shipped with every project
const (
	BackdropAssetID = "cd21514d0531fdffb22204e0ec5ed84a"
	BackdropMD5Ext  = BackdropAssetID + ".svg"
)

// Project is the project.json document
type Project struct {
	Targets    []Target  `json:"targets"`
	Monitors   []Monitor `json:"monitors"`
	Extensions []string  `json:"extensions"`
	Meta       Meta      `json:"meta"`
}

// Stage returns the stage target
func (p *Project) Stage() *Target {
	return &p.Targets[0]
}

// Target is a sprite or, here, the stage
type Target struct {
	IsStage              bool              `json:"isStage"`
	Name                 string            `json:"name"`
	Variables            map[string][]any  `json:"variables"`
	Lists                map[string][]any  `json:"lists"`
	Broadcasts           map[string]string `json:"broadcasts"`
	Blocks               map[string]*Block `json:"blocks"`
	Comments             map[string]any    `json:"comments"`
	CurrentCostume       int               `json:"currentCostume"`
	Costumes             []Costume         `json:"costumes"`
	Sounds               []any             `json:"sounds"`
	Volume               int               `json:"volume"`
	LayerOrder           int               `json:"layerOrder"`
	Tempo                int               `json:"tempo"`
	VideoTransparency    int               `json:"videoTransparency"`
	VideoState           string            `json:"videoState"`
	TextToSpeechLanguage *string           `json:"textToSpeechLanguage"`
}

type Costume struct {
	Name            string `json:"name"`
	DataFormat      string `json:"dataFormat"`
	AssetID         string `json:"assetId"`
	MD5Ext          string `json:"md5ext"`
	RotationCenterX int    `json:"rotationCenterX"`
	RotationCenterY int    `json:"rotationCenterY"`
}

// Block is one entry of a target's block map.
//
// Inputs map a slot name to [shadowKind, value, (obscured shadow)], where
// value is either an inline primitive array or a block id. Fields map a slot
// name to [value, id].
type Block struct {
	Opcode   string           `json:"opcode"`
	Next     *string          `json:"next"`
	Parent   *string          `json:"parent"`
	Inputs   map[string][]any `json:"inputs"`
	Fields   map[string][]any `json:"fields"`
	Shadow   bool             `json:"shadow"`
	TopLevel bool             `json:"topLevel"`
	X        *int             `json:"x,omitempty"`
	Y        *int             `json:"y,omitempty"`
	Mutation *Mutation        `json:"mutation,omitempty"`
}

// Mutation carries custom block and stop-option metadata
type Mutation struct {
	TagName          string `json:"tagName"`
	Children         []any  `json:"children"`
	ProcCode         string `json:"proccode,omitempty"`
	ArgumentIDs      string `json:"argumentids,omitempty"`
	ArgumentNames    string `json:"argumentnames,omitempty"`
	ArgumentDefaults string `json:"argumentdefaults,omitempty"`
	Warp             string `json:"warp,omitempty"`
	HasNext          string `json:"hasnext,omitempty"`
}

// Monitor is an on-stage variable or list display
type Monitor struct {
	ID         string            `json:"id"`
	Mode       string            `json:"mode"`
	Opcode     string            `json:"opcode"`
	Params     map[string]string `json:"params"`
	SpriteName *string           `json:"spriteName"`
	Value      []any             `json:"value"`
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	X          int               `json:"x"`
	Y          int               `json:"y"`
	Visible    bool              `json:"visible"`
}

// Meta identifies the format and the producing tool
type Meta struct {
	Semver string `json:"semver"`
	VM     string `json:"vm"`
	Agent  string `json:"agent,omitempty"`
}

// DefaultMeta is the metadata Scratch 3 loads without complaint
func DefaultMeta() Meta {
	return Meta{Semver: "3.0.0", VM: "2.3.4"}
}

// Validate checks that both versions are semantic versions
func (m Meta) Validate() error {
	if !semver.IsValid("v" + m.Semver) {
		return fmt.Errorf("invalid project semver %q", m.Semver)
	}
	if semver.Major("v"+m.Semver) != "v3" {
		return fmt.Errorf("unsupported project semver %q: only 3.x projects are produced", m.Semver)
	}
	if !semver.IsValid("v" + m.VM) {
		return fmt.Errorf("invalid vm version %q", m.VM)
	}
	return nil
}

func newProject(meta Meta) *Project {
	return &Project{
		Targets: []Target{{
			IsStage:    true,
			Name:       "Stage",
			Variables:  map[string][]any{},
			Lists:      map[string][]any{},
			Broadcasts: map[string]string{},
			Blocks:     map[string]*Block{},
			Comments:   map[string]any{},
			Costumes: []Costume{{
				Name:            "backdrop1",
				DataFormat:      "svg",
				AssetID:         BackdropAssetID,
				MD5Ext:          BackdropMD5Ext,
				RotationCenterX: 240,
				RotationCenterY: 180,
			}},
			Sounds:            []any{},
			Volume:            100,
			Tempo:             60,
			VideoTransparency: 50,
			VideoState:        "on",
		}},
		Monitors:   []Monitor{},
		Extensions: []string{},
		Meta:       meta,
	}
}

func listMonitor(list string, visible bool) Monitor {
	return Monitor{
		ID:      list,
		Mode:    "list",
		Opcode:  "data_listcontents",
		Params:  map[string]string{"List": list},
		Value:   []any{},
		Width:   480,
		Height:  360,
		Visible: visible,
	}
}
