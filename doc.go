/*
go-screentrack captures a region of the screen, periodically runs object
detection on the most recent frame and follows every accepted detection with
its own visual tracker so boxes move with their objects between detection
cycles.

Each tracked object runs in its own goroutine which fuses the raw output of an
OpenCV single object tracker with a constant velocity Kalman filter to smooth
the box position, and retires the object once the tracker has lost it for too
many consecutive frames.

Box updates are delivered through the tracker.Notifier interface, see the
render subdirectory for an overlay that draws them onto frames and streams
the result over HTTP.

See example code and usage in the example subdirectory.
*/
package screentrack
