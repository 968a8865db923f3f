package commands

const (
	_etc = "/usr/local/etc/com.github.uhppoted"

	DEFAULT_CREDENTIALS = _etc + "/checkin/.google/credentials.json"

	BROWSER = "open"
)
