// Package fixtures holds a tiny perception dataset: two label dumps over
// the same frames, used by the DuckDB integration suites.
package fixtures

const Database = "perception"

const (
	FramesDumpA = Database + ".frames_dump_a"
	FramesDumpB = Database + ".frames_dump_b"
)

func Perception() []string {
	return []string{
		"CREATE SCHEMA IF NOT EXISTS " + Database,
		"CREATE TABLE " + FramesDumpA + " (clip_id VARCHAR, frame_index INTEGER, weather VARCHAR," +
			" ego_speed DOUBLE, is_night BOOLEAN, population VARCHAR, label VARCHAR, image_path VARCHAR)",
		"CREATE TABLE " + FramesDumpB + " (clip_id VARCHAR, frame_index INTEGER, weather VARCHAR," +
			" ego_speed DOUBLE, is_night BOOLEAN, population VARCHAR, label VARCHAR, image_path VARCHAR)",
		"INSERT INTO " + FramesDumpA + " VALUES" +
			" ('clip_0001', 0, 'sun', 4.5, false, 'train', 'car', 's3://frames/clip_0001/000000.jpg')," +
			" ('clip_0001', 1, 'sun', 5.5, false, 'train', 'car', 's3://frames/clip_0001/000001.jpg')," +
			" ('clip_0001', 2, 'sun', 12.0, false, 'train', 'truck', 's3://frames/clip_0001/000002.jpg')," +
			" ('clip_0002', 0, 'rain', 21.0, true, 'test', 'pedestrian', 's3://frames/clip_0002/000000.jpg')," +
			" ('clip_0002', 1, 'rain', 29.5, true, 'test', 'car', 's3://frames/clip_0002/000001.jpg')",
		"INSERT INTO " + FramesDumpB + " VALUES" +
			" ('clip_0001', 0, 'sun', 4.5, false, 'train', 'car', 's3://frames/clip_0001/000000.jpg')," +
			" ('clip_0001', 1, 'sun', 5.5, false, 'train', 'truck', 's3://frames/clip_0001/000001.jpg')," +
			" ('clip_0001', 2, 'sun', 12.0, false, 'train', 'truck', 's3://frames/clip_0001/000002.jpg')," +
			" ('clip_0002', 0, 'rain', 21.0, true, 'test', 'pedestrian', 's3://frames/clip_0002/000000.jpg')," +
			" ('clip_0002', 1, 'rain', 29.5, true, 'test', 'pedestrian', 's3://frames/clip_0002/000001.jpg')",
	}
}
