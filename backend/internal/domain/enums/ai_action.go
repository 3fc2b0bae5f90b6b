package enums

type AIAction string

const (
	AIActionGenerate AIAction = "generate"
	AIActionChat     AIAction = "chat"
)
