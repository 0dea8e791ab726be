package monitor

type BlueskyConfig struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

func (c BlueskyConfig) Enabled() bool {
	return c.Handle != "" && c.Password != ""
}

type DocumentCloudConfig struct {
	BaseUrl string `json:"base_url"`
	Token   string `json:"token"`
}

type SmtpConfig struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	From     string   `json:"from"`
	To       []string `json:"to"`
	Username string   `json:"username"`
	Password string   `json:"password"`
}

func (c SmtpConfig) Enabled() bool {
	return c.Host != "" && len(c.To) > 0
}

type Config struct {
	IncludeProclamations bool `json:"include_proclamations"`
	// nil means the default (true)
	ArchiveToIA        *bool `json:"archive_to_ia"`
	CheckIntervalHours int   `json:"check_interval_hours"`
	// nil means the default (true)
	UploadToIpfs *bool `json:"upload_to_ipfs"`

	// exactly one of these picks the history store; state_file wins
	StateFile string `json:"state_file"`
	StateDb   string `json:"state_db"`

	Bluesky       BlueskyConfig       `json:"bluesky"`
	DocumentCloud DocumentCloudConfig `json:"documentcloud"`
	Smtp          SmtpConfig          `json:"smtp"`
}

const DefaultCheckIntervalHours = 24

func (c Config) Interval() int {
	if c.CheckIntervalHours <= 0 {
		return DefaultCheckIntervalHours
	}
	return c.CheckIntervalHours
}

func (c Config) ArchiveToIAEnabled() bool {
	return c.ArchiveToIA == nil || *c.ArchiveToIA
}

func (c Config) UploadToIpfsEnabled() bool {
	return c.UploadToIpfs == nil || *c.UploadToIpfs
}
