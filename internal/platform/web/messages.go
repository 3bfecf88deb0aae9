package web

// stateMessage is broadcast to every subscriber once per frame.
type stateMessage struct {
	Type     string         `json:"type"`
	Seq      uint64         `json:"seq"`
	TimeMS   int64          `json:"time"` // loop time since the hub started
	Stage    stageInfo      `json:"stage"`
	Colony   colonyInfo     `json:"colony"`
	Lemmings []lemmingState `json:"lemmings"`
}

type stageInfo struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Obstacles []obstacleInfo `json:"obstacles"`
}

type obstacleInfo struct {
	ID      string   `json:"id"`
	Classes []string `json:"classes"`
	X       int      `json:"x"`
	Y       int      `json:"y"`
	W       int      `json:"w"`
	H       int      `json:"h"`
	Solid   bool     `json:"solid"` // matched by the current selector
}

type colonyInfo struct {
	Agents   int    `json:"agents"`
	Moving   int    `json:"moving"`
	Faulted  int    `json:"faulted"`
	Spawned  int    `json:"spawned"`
	Paused   bool   `json:"paused"`
	SpeedMS  int64  `json:"speedMs"`
	Selector string `json:"selector"`
}

type lemmingState struct {
	ID          int    `json:"id"`
	Action      string `json:"action"`
	Sprite      string `json:"sprite"` // e.g. "walk_r"
	Direction   string `json:"direction"`
	Climbing    bool   `json:"climbing"`
	Moving      bool   `json:"moving"`
	Rule        string `json:"rule"`
	Adjacency   string `json:"adjacency"`
	Frame       int    `json:"frame"`
	FrameOffset int    `json:"frameOffset"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	W           int    `json:"w"`
	H           int    `json:"h"`
	Fault       string `json:"fault,omitempty"`
}

// clientMessage is sent by browsers.
type clientMessage struct {
	Type     string `json:"type"`               // "command", "selector", "move", "resize"
	Cmd      string `json:"cmd,omitempty"`      // command name for "command"
	Selector string `json:"selector,omitempty"` // new selector for "selector"
	ID       string `json:"id,omitempty"`       // obstacle ID for "move"
	X        int    `json:"x,omitempty"`
	Y        int    `json:"y,omitempty"`
	Width    int    `json:"width,omitempty"` // viewport size for "resize"
	Height   int    `json:"height,omitempty"`
}

// errorMessage reports a rejected client message.
type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
