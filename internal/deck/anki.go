package deck

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Model and deck IDs are fixed so a regenerated package merges into an
// existing collection on re-import instead of multiplying models and decks.
const (
	QAModelID     int64 = 1607392319
	DefaultDeckID int64 = 2059400110

	DefaultDeckName = "Generated Deck"
	ModelName       = "Simple Q&A Model"
	TemplateName    = "Card 1"

	QuestionFormat = "{{Question}}"
	AnswerFormat   = `{{FrontSide}}<hr id="answer">{{Answer}}`
)

const (
	collectionFilename = "collection.anki2"
	schemaVersion      = 11

	// fieldSeparator joins note fields inside the flds column. Anki uses the
	// ASCII unit separator.
	fieldSeparator = "\x1f"
)

// collectionSchema is Anki's schema 11 collection layout. The revlog and
// graves tables stay empty in a generated package but importers expect them.
const collectionSchema = `
CREATE TABLE col (
    id     integer PRIMARY KEY,
    crt    integer NOT NULL,
    mod    integer NOT NULL,
    scm    integer NOT NULL,
    ver    integer NOT NULL,
    dty    integer NOT NULL,
    usn    integer NOT NULL,
    ls     integer NOT NULL,
    conf   text NOT NULL,
    models text NOT NULL,
    decks  text NOT NULL,
    dconf  text NOT NULL,
    tags   text NOT NULL
);
CREATE TABLE notes (
    id    integer PRIMARY KEY,
    guid  text NOT NULL,
    mid   integer NOT NULL,
    mod   integer NOT NULL,
    usn   integer NOT NULL,
    tags  text NOT NULL,
    flds  text NOT NULL,
    sfld  integer NOT NULL,
    csum  integer NOT NULL,
    flags integer NOT NULL,
    data  text NOT NULL
);
CREATE TABLE cards (
    id     integer PRIMARY KEY,
    nid    integer NOT NULL,
    did    integer NOT NULL,
    ord    integer NOT NULL,
    mod    integer NOT NULL,
    usn    integer NOT NULL,
    type   integer NOT NULL,
    queue  integer NOT NULL,
    due    integer NOT NULL,
    ivl    integer NOT NULL,
    factor integer NOT NULL,
    reps   integer NOT NULL,
    lapses integer NOT NULL,
    left   integer NOT NULL,
    odue   integer NOT NULL,
    odid   integer NOT NULL,
    flags  integer NOT NULL,
    data   text NOT NULL
);
CREATE TABLE revlog (
    id      integer PRIMARY KEY,
    cid     integer NOT NULL,
    usn     integer NOT NULL,
    ease    integer NOT NULL,
    ivl     integer NOT NULL,
    lastIvl integer NOT NULL,
    factor  integer NOT NULL,
    time    integer NOT NULL,
    type    integer NOT NULL
);
CREATE TABLE graves (
    usn  integer NOT NULL,
    oid  integer NOT NULL,
    type integer NOT NULL
);
CREATE INDEX ix_notes_usn ON notes (usn);
CREATE INDEX ix_cards_usn ON cards (usn);
CREATE INDEX ix_revlog_usn ON revlog (usn);
CREATE INDEX ix_cards_nid ON cards (nid);
CREATE INDEX ix_cards_sched ON cards (did, queue, due);
CREATE INDEX ix_revlog_cid ON revlog (cid);
CREATE INDEX ix_notes_csum ON notes (csum);
`

const defaultCSS = ".card {\n font-family: arial;\n font-size: 20px;\n text-align: center;\n color: black;\n background-color: white;\n}\n"

const (
	latexPre  = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n"
	latexPost = "\\end{document}"
)

type modelField struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Sticky bool     `json:"sticky"`
	RTL    bool     `json:"rtl"`
	Font   string   `json:"font"`
	Size   int      `json:"size"`
	Media  []string `json:"media"`
}

type modelTemplate struct {
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	Qfmt  string `json:"qfmt"`
	Afmt  string `json:"afmt"`
	Bqfmt string `json:"bqfmt"`
	Bafmt string `json:"bafmt"`
	Did   *int64 `json:"did"`
}

type noteModel struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Type      int             `json:"type"`
	Mod       int64           `json:"mod"`
	Usn       int             `json:"usn"`
	Sortf     int             `json:"sortf"`
	Did       int64           `json:"did"`
	Tmpls     []modelTemplate `json:"tmpls"`
	Flds      []modelField    `json:"flds"`
	CSS       string          `json:"css"`
	LatexPre  string          `json:"latexPre"`
	LatexPost string          `json:"latexPost"`
	Req       [][]interface{} `json:"req"`
	Tags      []string        `json:"tags"`
	Vers      []string        `json:"vers"`
}

type deckEntry struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Desc      string `json:"desc"`
	Mod       int64  `json:"mod"`
	Usn       int    `json:"usn"`
	Collapsed bool   `json:"collapsed"`
	Conf      int    `json:"conf"`
	Dyn       int    `json:"dyn"`
	ExtendNew int    `json:"extendNew"`
	ExtendRev int    `json:"extendRev"`
	LrnToday  [2]int `json:"lrnToday"`
	NewToday  [2]int `json:"newToday"`
	RevToday  [2]int `json:"revToday"`
	TimeToday [2]int `json:"timeToday"`
}

type colConf struct {
	ActiveDecks   []int64 `json:"activeDecks"`
	AddToCur      bool    `json:"addToCur"`
	CollapseTime  int     `json:"collapseTime"`
	CurDeck       int64   `json:"curDeck"`
	CurModel      string  `json:"curModel"`
	DueCounts     bool    `json:"dueCounts"`
	EstTimes      bool    `json:"estTimes"`
	NewBury       bool    `json:"newBury"`
	NewSpread     int     `json:"newSpread"`
	NextPos       int     `json:"nextPos"`
	SortBackwards bool    `json:"sortBackwards"`
	SortType      string  `json:"sortType"`
	TimeLim       int     `json:"timeLim"`
}

type deckOptionsLapse struct {
	Delays      []float64 `json:"delays"`
	LeechAction int       `json:"leechAction"`
	LeechFails  int       `json:"leechFails"`
	MinInt      int       `json:"minInt"`
	Mult        float64   `json:"mult"`
}

type deckOptionsNew struct {
	Bury          bool      `json:"bury"`
	Delays        []float64 `json:"delays"`
	InitialFactor int       `json:"initialFactor"`
	Ints          []int     `json:"ints"`
	Order         int       `json:"order"`
	PerDay        int       `json:"perDay"`
	Separate      bool      `json:"separate"`
}

type deckOptionsRev struct {
	Bury     bool    `json:"bury"`
	Ease4    float64 `json:"ease4"`
	Fuzz     float64 `json:"fuzz"`
	IvlFct   float64 `json:"ivlFct"`
	MaxIvl   int     `json:"maxIvl"`
	MinSpace int     `json:"minSpace"`
	PerDay   int     `json:"perDay"`
}

type deckOptions struct {
	ID       int              `json:"id"`
	Name     string           `json:"name"`
	Autoplay bool             `json:"autoplay"`
	Dyn      bool             `json:"dyn"`
	Lapse    deckOptionsLapse `json:"lapse"`
	MaxTaken int              `json:"maxTaken"`
	Mod      int64            `json:"mod"`
	New      deckOptionsNew   `json:"new"`
	Replayq  bool             `json:"replayq"`
	Rev      deckOptionsRev   `json:"rev"`
	Timer    int              `json:"timer"`
	Usn      int              `json:"usn"`
}

// collectionJSON builds the four JSON blobs stored on the col row: the
// collection config, the note model registry, the deck registry and the deck
// options groups. Anki parses these on import, so every field it reads has to
// be present even when the value is just the stock default.
func collectionJSON(deckName string, now time.Time) (conf, models, decks, dconf string, err error) {
	mod := now.Unix()

	model := noteModel{
		ID:    QAModelID,
		Name:  ModelName,
		Mod:   mod,
		Usn:   -1,
		Tmpls: []modelTemplate{{
			Name: TemplateName,
			Qfmt: QuestionFormat,
			Afmt: AnswerFormat,
		}},
		Flds: []modelField{
			{Name: "Question", Ord: 0, Font: "Arial", Size: 20, Media: []string{}},
			{Name: "Answer", Ord: 1, Font: "Arial", Size: 20, Media: []string{}},
		},
		CSS:       defaultCSS,
		LatexPre:  latexPre,
		LatexPost: latexPost,
		Req:       [][]interface{}{{0, "all", []int{0}}},
		Tags:      []string{},
		Vers:      []string{},
	}

	deckRegistry := map[string]deckEntry{
		"1": {
			ID:        1,
			Name:      "Default",
			Mod:       mod,
			Usn:       -1,
			Conf:      1,
			ExtendRev: 50,
		},
		strconv.FormatInt(DefaultDeckID, 10): {
			ID:        DefaultDeckID,
			Name:      deckName,
			Mod:       mod,
			Usn:       -1,
			Conf:      1,
			ExtendRev: 50,
		},
	}

	confValue := colConf{
		ActiveDecks:  []int64{1},
		AddToCur:     true,
		CollapseTime: 1200,
		CurDeck:      1,
		CurModel:     strconv.FormatInt(QAModelID, 10),
		DueCounts:    true,
		EstTimes:     true,
		NewBury:      true,
		NextPos:      1,
		SortType:     "noteFld",
	}

	options := map[string]deckOptions{
		"1": {
			ID:       1,
			Name:     "Default",
			Autoplay: true,
			Lapse: deckOptionsLapse{
				Delays:     []float64{10},
				LeechFails: 8,
				MinInt:     1,
			},
			MaxTaken: 60,
			Mod:      mod,
			New: deckOptionsNew{
				Bury:          true,
				Delays:        []float64{1, 10},
				InitialFactor: 2500,
				Ints:          []int{1, 4, 7},
				Order:         1,
				PerDay:        20,
				Separate:      true,
			},
			Replayq: true,
			Rev: deckOptionsRev{
				Bury:     true,
				Ease4:    1.3,
				Fuzz:     0.05,
				IvlFct:   1,
				MaxIvl:   36500,
				MinSpace: 1,
				PerDay:   100,
			},
		},
	}

	confJSON, err := json.Marshal(confValue)
	if err != nil {
		return "", "", "", "", fmt.Errorf("failed to encode collection config: %w", err)
	}
	modelsJSON, err := json.Marshal(map[string]noteModel{strconv.FormatInt(QAModelID, 10): model})
	if err != nil {
		return "", "", "", "", fmt.Errorf("failed to encode note models: %w", err)
	}
	decksJSON, err := json.Marshal(deckRegistry)
	if err != nil {
		return "", "", "", "", fmt.Errorf("failed to encode deck registry: %w", err)
	}
	dconfJSON, err := json.Marshal(options)
	if err != nil {
		return "", "", "", "", fmt.Errorf("failed to encode deck options: %w", err)
	}
	return string(confJSON), string(modelsJSON), string(decksJSON), string(dconfJSON), nil
}

// noteGUID derives a stable note identifier from the card's content, so that
// re-importing a regenerated deck updates matching notes instead of
// duplicating them.
func noteGUID(question, answer string) string {
	sum := sha256.Sum256([]byte(question + fieldSeparator + answer))
	return hex.EncodeToString(sum[:8])
}

// fieldChecksum is Anki's sort-field checksum: the first 8 hex digits of the
// SHA1 of the field, read as an integer.
func fieldChecksum(field string) int64 {
	sum := sha1.Sum([]byte(field))
	v, _ := strconv.ParseInt(hex.EncodeToString(sum[:])[:8], 16, 64)
	return v
}
