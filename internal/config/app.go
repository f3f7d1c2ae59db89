package config

type AppConfig struct {
	Server ServerConfig
	Sim    SimConfig
	Log    LogConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	simCfg, err := LoadSim()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Sim:    simCfg,
		Log:    logCfg,
	}, nil
}
