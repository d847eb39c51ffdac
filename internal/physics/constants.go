package physics

// Physics constants. Velocities are expressed in table units per 10 ms (the
// default step) and physics frames advance by PhysicsStepTime microseconds.
const (
	PhysSkin      = 25.0
	PhysTouch     = 0.05
	CLowNormVel   = 0.0001
	CContactVel   = 0.099
	CEmbedded     = 0.0
	CEmbedShot    = 0.05
	CDispGain     = 0.9825
	CDispLimit    = 5.0
	CPrecision    = 0.01
	CTolEndpoints = 0.0
	CTolRadius    = 0.005

	PhysicsStepTime  = 1000 // usec
	PhysicsStepTimeS = 0.001
	DefaultStepTime  = 10000
	DefaultStepTimeS = 0.01
	PhysFactor       = PhysicsStepTimeS / DefaultStepTimeS

	GravityConst = 1.81751

	StaticCnts = 10
	StaticTime = 0.005

	DefaultBallRadius = 25.0
	DefaultBallMass   = 1.0

	DefaultBallElasticity = 0.8
	DefaultBallFriction   = 0.1

	// below this the ball is taken out of play
	DrainDepth = 50.0
)

// ElasticityWithFalloff lowers restitution for hard impacts.
func ElasticityWithFalloff(elasticity, falloff, vel float64) float64 {
	if falloff > 0 {
		return elasticity / (1 + falloff*abs(vel)*(1.0/18.53))
	}
	return elasticity
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
