package config

const endpointVar = "TABNEWS_ENDPOINT"

type GatewayConfig interface {
	GetEndpoint() string
}

type Gateway struct {
	file *GatewayFile
}

var _ GatewayConfig = Gateway{}

func (g Gateway) GetEndpoint() string {
	fileValue := ""
	if g.file != nil {
		fileValue = g.file.Endpoint
	}
	return lookup(endpointVar, fileValue, "https://5cr4muf9c9.execute-api.us-east-2.amazonaws.com/process-tabs")
}
