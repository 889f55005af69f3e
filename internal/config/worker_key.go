package config

type WorkerKeyStruct struct {
	PersistAPIUsageQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAPIUsageQueue: "persist_api_usage_queue",
}
